package pubip

import (
	"fmt"
	"net/netip"

	"github.com/pion/stun"
)

var stunServers = []string{
	"stun.l.google.com:19302",
	"stun1.l.google.com:19302",
	"stun2.l.google.com:19302",
	"stun.cloudflare.com:3478",
	"stun.nextcloud.com:443",
}

// checkStunServer sends a binding request over udp4 and returns
// the XOR-MAPPED-ADDRESS the server saw.
func checkStunServer(srv string) (netip.Addr, error) {
	var ip netip.Addr
	var cbErr error

	callback := func(res stun.Event) {
		if res.Error != nil {
			cbErr = res.Error
			return
		}

		var xorAddr stun.XORMappedAddress
		if cbErr = xorAddr.GetFrom(res.Message); cbErr != nil {
			return
		}
		addr, ok := netip.AddrFromSlice(xorAddr.IP)
		if !ok {
			cbErr = fmt.Errorf("invalid mapped address %v", xorAddr.IP)
			return
		}
		ip = addr.Unmap()
	}

	c, err := stun.Dial("udp4", srv)
	if err != nil {
		return ip, err
	}
	defer c.Close()

	message := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	if err = c.Do(message, callback); err != nil {
		return ip, err
	}

	return ip, cbErr
}

package config

import "time"

// This struct is used to cache commonly used tracer configuration.
// Values are read from exported shell variables once in Init and may be
// overridden by command line flags afterwards.
type configCache struct {
	debugLevel int
	jsonLog    bool

	probe struct {
		maxTTL      uint
		delay       time.Duration
		srcPort     uint16
		dstPort     uint16
		perHopPorts bool
		payloadSize uint
		udpChecksum bool
	}

	mode      string
	bindPort  uint16
	dnsServer string

	exporterPort uint16
	natCheck     bool
}

var cache configCache

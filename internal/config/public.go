package config

import "time"

func GetDebugLevel() int {
	return cache.debugLevel
}

func SetDebugLevel(level int) {
	cache.debugLevel = level
}

func JSONLog() bool {
	return cache.jsonLog
}

func MaxTTL() int {
	return int(cache.probe.maxTTL)
}

// SetMaxTTL ignores values outside 1..255
func SetMaxTTL(ttl int) {
	if ttl >= 1 && ttl <= maxTTL {
		cache.probe.maxTTL = uint(ttl)
	}
}

func ProbeDelay() time.Duration {
	return cache.probe.delay
}

func SetProbeDelay(d time.Duration) {
	if d >= 0 {
		cache.probe.delay = d
	}
}

func SrcPort() uint16 {
	return cache.probe.srcPort
}

func SetSrcPort(port uint16) {
	cache.probe.srcPort = port
}

func DstPortBase() uint16 {
	return cache.probe.dstPort
}

func SetDstPortBase(port uint16) {
	if port > 0 {
		cache.probe.dstPort = port
	}
}

func PerHopPorts() bool {
	return cache.probe.perHopPorts
}

func PayloadSize() int {
	return int(cache.probe.payloadSize)
}

func SetPayloadSize(size int) {
	if size >= 0 {
		cache.probe.payloadSize = uint(size)
	}
}

func UDPChecksum() bool {
	return cache.probe.udpChecksum
}

func Mode() string {
	return cache.mode
}

func SetMode(mode string) {
	cache.mode = mode
}

func BindPort() uint16 {
	return cache.bindPort
}

func DNSServer() string {
	return cache.dnsServer
}

func MetricsExporterEnabled() bool {
	return cache.exporterPort > 0
}

func MetricsExporterPort() uint16 {
	return cache.exporterPort
}

func NATCheck() bool {
	return cache.natCheck
}

package config

import (
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
)

const (
	maxPort = 65535
	maxTTL  = 255

	DefaultMaxTTL      = maxTTL
	DefaultDelay       = 100 * time.Millisecond
	DefaultSrcPort     = 4243
	DefaultDstPortBase = 33434
	DefaultBindPort    = 34254
	DefaultMode        = "udp"

	// Destination port gets a random offset in [1..dstPortSpread] unless set explicitly
	dstPortSpread = 100
)

func Init() {
	initDebugLevel()
	initBool(&cache.jsonLog, "TRACER_LOG_JSON", false)

	initUint(&cache.probe.maxTTL, "TRACER_MAX_TTL", DefaultMaxTTL)
	if cache.probe.maxTTL < 1 {
		cache.probe.maxTTL = 1
	} else if cache.probe.maxTTL > maxTTL {
		cache.probe.maxTTL = maxTTL
	}
	initMilliseconds(&cache.probe.delay, "TRACER_DELAY_MS", DefaultDelay)
	initPort(&cache.probe.srcPort, "TRACER_SRC_PORT", DefaultSrcPort)
	initPort(&cache.probe.dstPort, "TRACER_DST_PORT", 0)
	if cache.probe.dstPort == 0 {
		cache.probe.dstPort = uint16(DefaultDstPortBase + 1 + rand.Intn(dstPortSpread))
	}
	initBool(&cache.probe.perHopPorts, "TRACER_PER_HOP_PORTS", true)
	initUint(&cache.probe.payloadSize, "TRACER_PAYLOAD_SIZE", 0)
	initBool(&cache.probe.udpChecksum, "TRACER_UDP_CHECKSUM", false)

	initString(&cache.mode, "TRACER_MODE", DefaultMode)
	cache.mode = strings.ToLower(cache.mode)
	initPort(&cache.bindPort, "TRACER_BIND_PORT", DefaultBindPort)
	initString(&cache.dnsServer, "TRACER_DNS_SERVER", "")

	initPort(&cache.exporterPort, "TRACER_EXPORTER_PORT", 0)
	initBool(&cache.natCheck, "TRACER_NAT_CHECK", false)
}

func Close() {
	// Anything needed to be closed or destroyed at the end of program, goes here
}

func initDebugLevel() {
	cache.debugLevel = logger.ParseLevel(os.Getenv("TRACER_LOG_LEVEL"), logger.InfoLevel)
}

// Command sniffer reads a pcap capture file and classifies the first
// bytes of each TCP/UDP flow it sees. It demonstrates pkg/engine against
// real packet captures; it is a demo, not a production capture pipeline,
// and gopacket never appears inside pkg/engine itself.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/protosentry/detector/pkg/config"
	"github.com/protosentry/detector/pkg/engine"
	"github.com/protosentry/detector/pkg/logging"
)

var (
	pcapFile   = flag.String("pcap", "", "Path to a pcap capture file (required)")
	configFile = flag.String("config", "", "Path to a detector config file; empty uses defaults")
	maxFlows   = flag.Int("max-flows", 100, "Stop after classifying this many flows")
)

// flowKey identifies a 4-tuple flow; only its first packet's payload is
// classified, so no reassembly is attempted.
type flowKey struct {
	srcIP, dstIP     string
	srcPort, dstPort uint16
}

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	cfg := config.New(*configFile)
	if err := cfg.Load(); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	detectionConfig, err := cfg.Build()
	if err != nil {
		log.Fatalf("building detection config: %v", err)
	}
	detector, err := engine.New(detectionConfig, logging.Default())
	if err != nil {
		log.Fatalf("creating detector: %v", err)
	}

	handle, err := pcapgo.OpenOffline(*pcapFile)
	if err != nil {
		log.Fatalf("opening pcap file: %v", err)
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	seen := make(map[flowKey]bool)
	classified := 0

	for packet := range source.Packets() {
		if classified >= *maxFlows {
			break
		}
		key, payload, ok := flowPayload(packet)
		if !ok || len(payload) == 0 || seen[key] {
			continue
		}
		seen[key] = true

		result, err := detector.Detect(payload)
		if err != nil {
			fmt.Printf("%s:%d -> %s:%d  (no verdict: %v)\n",
				key.srcIP, key.srcPort, key.dstIP, key.dstPort, err)
			continue
		}
		fmt.Printf("%s:%d -> %s:%d  %s\n",
			key.srcIP, key.srcPort, key.dstIP, key.dstPort, result.String())
		classified++
	}
}

func flowPayload(packet gopacket.Packet) (flowKey, []byte, bool) {
	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return flowKey{}, nil, false
	}
	src, dst := netLayer.NetworkFlow().Endpoints()

	if tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
		return flowKey{src.String(), dst.String(), uint16(tcp.SrcPort), uint16(tcp.DstPort)},
			tcp.Payload, true
	}
	if udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		return flowKey{src.String(), dst.String(), uint16(udp.SrcPort), uint16(udp.DstPort)},
			udp.Payload, true
	}
	return flowKey{}, nil, false
}

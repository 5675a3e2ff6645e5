// Command chronos-replay drives the capture->decoder->matching-engine
// pipeline end to end over a pcap file, printing throughput and final
// book state. It is a thin CLI around pkg/capture, pkg/itch and pkg/lx.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/chronos/pkg/capture"
	"github.com/luxfi/chronos/pkg/feed"
	"github.com/luxfi/chronos/pkg/itch"
	"github.com/luxfi/chronos/pkg/lx"
	"github.com/luxfi/chronos/pkg/metrics"
)

// matchTriggerInterval reproduces the source driver's demonstration
// simulation: every Nth AddOrder is flipped to the opposite side and
// repriced to cross the book, so a replay of otherwise non-crossing
// sample data still exercises matching. This is a driver artifact, not
// part of the decoder or book contract.
const matchTriggerInterval = 100

func main() {
	pcapPath := flag.String("pcap", "data/Multiple.Packets.pcap", "path to the pcap capture file to replay")
	poolCapacity := flag.Int("pool-capacity", 1_000_000, "fixed order pool capacity, always parameterised rather than hardcoded")
	offsetOverride := flag.Int("offset-override", -1, "force the ITCH payload offset instead of running discovery (-1 = auto)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty = disabled)")
	feedAddr := flag.String("feed-addr", "", "address to serve the live WebSocket book/trade feed on (empty = disabled)")
	symbol := flag.String("symbol", "REPLAY", "symbol name to attach to broadcast feed messages")
	flag.Parse()

	logger := log.Root().New("module", "chronos-replay")

	fmt.Println("================================================================")
	fmt.Println("           CHRONOS - Market Replay Engine")
	fmt.Println("   Zero-Copy ITCH Decoder + Price-Time-Priority Matching Engine")
	fmt.Println("================================================================")
	fmt.Println()

	var replayMetrics *metrics.ReplayMetrics
	if *metricsAddr != "" {
		var err error
		replayMetrics, err = metrics.New("chronos")
		if err != nil {
			logger.Error("failed to initialize metrics", "error", err)
			os.Exit(1)
		}
		if err := replayMetrics.StartServer(*metricsAddr); err != nil {
			logger.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
	}

	var feedServer *feed.Server
	if *feedAddr != "" {
		feedServer = feed.NewServer(logger, *symbol)
		go func() {
			if err := feedServer.Start(*feedAddr); err != nil {
				logger.Error("feed server failed", "error", err)
			}
		}()
		defer feedServer.Stop()
	}

	fmt.Printf("Initializing order pool (capacity: %d orders)...\n", *poolCapacity)
	book := lx.NewOrderBook(*poolCapacity)

	fmt.Printf("Opening capture file: %s\n", *pcapPath)
	reader, err := capture.Open(*pcapPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open capture file: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	if *offsetOverride >= 0 {
		reader.SetOffsetOverride(*offsetOverride)
	}

	fmt.Printf("  File size: %.2f MB\n\n", float64(reader.FileSize())/(1024*1024))

	visitor := newReplayVisitor(book, replayMetrics, feedServer)

	fmt.Println("Starting market replay...")
	fmt.Printf("  Match trigger interval: every %dth order\n\n", matchTriggerInterval)

	start := time.Now()

	var packetCount int
	reader.ForEachPayload(func(payload []byte) {
		packetCount++
		offset := reader.DiscoverOffset(payload)
		if offset >= len(payload) {
			return
		}
		itch.DecodeStream(payload[offset:], visitor)
	})

	elapsed := time.Since(start)

	fmt.Println("\n=== Performance ===")
	fmt.Printf("Packets processed: %d\n", packetCount)
	fmt.Printf("Total time: %.3f ms\n", float64(elapsed.Microseconds())/1000.0)

	if elapsed > 0 {
		packetsPerSec := float64(packetCount) / elapsed.Seconds()
		ordersPerSec := float64(visitor.metrics.ordersProcessed) / elapsed.Seconds()
		mbPerSec := float64(reader.FileSize()) / (1024 * 1024) / elapsed.Seconds()

		fmt.Printf("Throughput: %.2f thousand packets/sec\n", packetsPerSec/1000)
		fmt.Printf("Order rate: %.2f thousand orders/sec\n", ordersPerSec/1000)
		fmt.Printf("Bandwidth: %.2f MB/sec\n", mbPerSec)
	}

	visitor.metrics.print()

	fmt.Println("\n=== Final Book State ===")
	fmt.Printf("Orders resting: %d\n", book.OrderCount())
	fmt.Printf("Bid levels: %d\n", book.BidLevelCount())
	fmt.Printf("Ask levels: %d\n", book.AskLevelCount())

	if bid, ok := book.BestBid(); ok {
		fmt.Printf("Best bid: %.4f\n", float64(bid)/10000.0)
	}
	if ask, ok := book.BestAsk(); ok {
		fmt.Printf("Best ask: %.4f\n", float64(ask)/10000.0)
	}
	if spread, ok := book.Spread(); ok {
		fmt.Printf("Spread: %.4f\n", float64(spread)/10000.0)
	}

	fmt.Printf("\nPool utilization: %.2f%% (%d / %d)\n",
		100.0*float64(book.OrderCount())/float64(book.Capacity()),
		book.OrderCount(), book.Capacity())

	s := reader.Stats()
	logger.Info("capture session complete",
		"packets_visited", s.PacketsVisited,
		"discovered_offset", s.DiscoveredOffset,
		"offset_was_override", s.OffsetWasOverride,
	)
}

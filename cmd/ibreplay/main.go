package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"main/internal/schema"
	"main/internal/tape"
	"main/internal/wire"
)

func main() {
	dir := flag.String("dir", "testdata/tape", "Tape directory")
	prefix := flag.String("prefix", "", "Tape file prefix (default: tape)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	direction := flag.String("direction", "", "Filter: in|out (default: both)")
	raw := flag.Bool("raw", false, "Print raw fields instead of summaries")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	flag.Parse()

	var filter tape.Direction
	switch *direction {
	case "":
	case "in":
		filter = tape.DirInbound
	case "out":
		filter = tape.DirOutbound
	default:
		log.Fatalf("invalid direction %q", *direction)
	}

	playback, err := tape.NewPlayback(tape.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		DisableChecksum: *noChecksum,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var count uint64
	err = playback.Run(ctx, func(rec tape.Record) error {
		if filter != 0 && rec.Direction != filter {
			return nil
		}
		count++
		printRecord(rec, *raw)
		return nil
	})
	if err != nil && err != context.Canceled {
		log.Fatalf("playback failed: %v", err)
	}
	fmt.Printf("%d frames\n", count)
}

func printRecord(rec tape.Record, raw bool) {
	ts := time.Unix(0, rec.TsRecv).UTC().Format("15:04:05.000000")
	fields := wire.SplitFields(rec.Payload)

	if raw {
		fmt.Printf("%s %-3s %q\n", ts, rec.Direction, fields)
		return
	}
	fmt.Printf("%s %-3s %s\n", ts, rec.Direction, summarize(rec.Direction, fields))
}

// summarize renders one frame as a short line: message name plus a few
// leading fields.
func summarize(dir tape.Direction, fields []string) string {
	if len(fields) == 0 {
		return "(empty)"
	}
	code, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return fmt.Sprintf("(handshake) %s", strings.Join(head(fields, 3), " "))
	}

	name := fields[0]
	if dir == tape.DirInbound {
		name = schema.IncomingMsgID(code).Name()
	}
	rest := head(fields[1:], 6)
	return fmt.Sprintf("%s %s", name, strings.Join(rest, " "))
}

func head(fields []string, n int) []string {
	if len(fields) <= n {
		return fields
	}
	return append(fields[:n:n], "...")
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// jtdxgen writes synthetic JTDX decode lines to a log file so the
// monitor can be exercised without a radio attached.

var (
	output   = flag.String("output", "test_202504_ALL.TXT", "Output log file")
	truncate = flag.Bool("new", false, "Truncate the output file instead of appending")
	count    = flag.Int("count", 0, "Number of lines to generate (0 = run until interrupted)")
	minWait  = flag.Int("min-wait-ms", 1000, "Minimum wait between lines in milliseconds")
	maxWait  = flag.Int("max-wait-ms", 5000, "Maximum wait between lines in milliseconds")
)

var (
	callsigns = []string{
		"BI1QXR", "VR2CO", "BD3CT", "BI1TMQ", "BD7IS",
		"BP12GOLD", "BG4WOM", "BH4WHQ", "BA1PK", "BG1QMY",
		"VK6KXW", "JA1XYZ", "W1ABC", "EA3XYZ",
	}
	grids      = []string{"OM89", "OL72", "OM98", "PM01", "ON80", "OF87"}
	directions = []string{"EU", "AS", "NA", "SA", "OC", "AF", "DX", "JA"}
	reports    = []string{"R-15", "RRR", "73", "RR73"}
)

const timestampLayout = "20060102_150405"

type generator struct {
	current time.Time
}

// lastTimestamp recovers the timestamp of the last line in an existing
// log so appended lines continue the sequence.
func lastTimestamp(path string) time.Time {
	f, err := os.Open(path) // #nosec G304 - operator-provided output path
	if err != nil {
		return time.Now().UTC()
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return time.Now().UTC()
	}

	chunk := int64(1024)
	if info.Size() < chunk {
		chunk = info.Size()
	}
	if _, err := f.Seek(-chunk, 2); err != nil {
		return time.Now().UTC()
	}

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}

	fields := strings.Fields(last)
	if len(fields) == 0 {
		return time.Now().UTC()
	}
	ts, err := time.Parse(timestampLayout, fields[0])
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}

func (g *generator) timestamp() string {
	ts := g.current.Format(timestampLayout)
	g.current = g.current.Add(time.Duration(1+rand.Intn(5)) * time.Second)
	return ts
}

func (g *generator) cqMessage() string {
	callsign := callsigns[rand.Intn(len(callsigns))]
	grid := grids[rand.Intn(len(grids))]

	if rand.Float64() < 0.3 {
		direction := directions[rand.Intn(len(directions))]
		return fmt.Sprintf("CQ %s %s %s", direction, callsign, grid)
	}
	return fmt.Sprintf("CQ %s %s", callsign, grid)
}

func (g *generator) directedMessage() string {
	caller := callsigns[rand.Intn(len(callsigns))]
	called := callsigns[rand.Intn(len(callsigns))]
	for caller == called {
		called = callsigns[rand.Intn(len(callsigns))]
	}

	payload := grids[rand.Intn(len(grids))]
	if rand.Float64() < 0.5 {
		payload = reports[rand.Intn(len(reports))]
	}
	return fmt.Sprintf("%s %s %s", called, caller, payload)
}

func (g *generator) line() string {
	message := g.cqMessage()
	if rand.Float64() < 0.8 {
		message = g.directedMessage()
	}
	// Occasionally emit a payload the decoder could not fully resolve.
	if rand.Float64() < 0.05 {
		message = fmt.Sprintf("<...> %s %d", callsigns[rand.Intn(len(callsigns))], -10-rand.Intn(11))
	}

	snr := -21 + rand.Intn(27)
	dt := float64(rand.Intn(19)-9) / 10
	freq := rand.Intn(3501)
	status := []string{"*", "^", ""}[rand.Intn(3)]

	return fmt.Sprintf("%s  %3d  %.1f %d ~ %s%s\n", g.timestamp(), snr, dt, freq, message, status)
}

func main() {
	flag.Parse()

	logger := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := &generator{current: time.Now().UTC()}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if *truncate {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	} else {
		gen.current = lastTimestamp(*output)
	}

	f, err := os.OpenFile(*output, flags, 0644) // #nosec G304 - operator-provided output path
	if err != nil {
		logger.Fatalf("Failed to open output file: %v", err)
	}
	defer f.Close()

	logger.WithField("file", *output).Info("Generating decode lines")

	written := 0
	for *count == 0 || written < *count {
		line := gen.line()
		if _, err := f.WriteString(line); err != nil {
			logger.Fatalf("Failed to write line: %v", err)
		}
		if err := f.Sync(); err != nil {
			logger.Warnf("Failed to sync output file: %v", err)
		}
		fmt.Print(line)
		written++

		wait := time.Duration(*minWait+rand.Intn(*maxWait-*minWait+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			logger.Info("Stopping generator")
			return
		case <-time.After(wait):
		}
	}
}

// Command detectcli classifies a blob of bytes read from stdin or a
// file and prints the resulting protocol.Result. It exists to exercise
// pkg/engine end to end the way cmd/client exercises the bonder; it is
// not part of the detection engine itself.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/protosentry/detector/pkg/config"
	"github.com/protosentry/detector/pkg/engine"
	"github.com/protosentry/detector/pkg/logging"
)

var (
	configFile = flag.String("config", "", "Path to a detector config file (YAML/JSON); empty uses defaults")
	inputFile  = flag.String("input", "", "Path to the file to classify; empty reads stdin")
	verbose    = flag.Bool("verbose", false, "Log probe-level detail to stderr")
)

func main() {
	flag.Parse()

	log := logging.Default()
	if *verbose {
		log = logging.NewText(os.Stderr, logrus.DebugLevel)
	}

	cfg := config.New(*configFile)
	if err := cfg.Load(); err != nil {
		fatal("loading config: %v", err)
	}
	detectionConfig, err := cfg.Build()
	if err != nil {
		fatal("building detection config: %v", err)
	}

	detector, err := engine.New(detectionConfig, log)
	if err != nil {
		fatal("creating detector: %v", err)
	}

	data, err := readInput(*inputFile)
	if err != nil {
		fatal("reading input: %v", err)
	}

	result, err := detector.Detect(data)
	if err != nil {
		fatal("detection failed: %v", err)
	}

	fmt.Println(result.String())
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func fatal(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

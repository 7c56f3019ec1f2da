// Command replay feeds a recorded keypoint stream (one observation JSON per
// line) through a classification pipeline, as if it had arrived live. Useful
// for validating a model file against pre-recorded video sessions.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/strideworks/streampose/internal/config"
	"github.com/strideworks/streampose/internal/db"
	"github.com/strideworks/streampose/internal/model"
	"github.com/strideworks/streampose/internal/pose"
)

var (
	modelPath  = flag.String("model", "", "Path to the model JSON file (required)")
	inputPath  = flag.String("input", "", "Path to the JSONL keypoint recording (required)")
	configPath = flag.String("config", "", "Optional tuning config JSON")
	dbPath     = flag.String("db", "", "Optional sqlite file to record classifications into")
)

func main() {
	flag.Parse()

	if *modelPath == "" || *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	m, err := model.Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	transformer := pose.NewFlatColumnTransformer(pose.TransformerConfig{
		IncludeJoints:     cfg.GetIncludeJoints(),
		IncludeNormalized: cfg.GetIncludeNormalized(),
		IncludeAngles:     cfg.GetIncludeAngles(),
		IncludeDistances:  cfg.GetIncludeDistances(),
	})

	sess, err := pose.NewSession(pose.SessionConfig{
		FrameWindow:     cfg.GetFrameWindow(),
		Source:          "video-file",
		Transformer:     transformer,
		Columns:         m.Columns(),
		Classifier:      m,
		IncludeGeometry: cfg.GetIncludeGeometry(),
	})
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}

	var store *db.DB
	if *dbPath != "" {
		store, err = db.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	var observations, classifications, failures int

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scan.Scan() {
		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}
		observations++

		var obs pose.Observation
		if err := obs.UnmarshalPayload(line); err != nil {
			log.Printf("line %d: malformed observation: %v", observations, err)
			continue
		}

		result, err := sess.ProcessObservation(ctx, &obs)
		if err != nil {
			failures++
			log.Printf("line %d: %v", observations, err)
			continue
		}
		if result == nil {
			continue
		}

		classifications++
		fmt.Printf("%s\t%s\t%.6fs\t%.1fhz\n",
			result.Timestamp, result.Classification, result.ProcessingTime, result.FrameRate)

		if store != nil {
			if err := store.RecordClassification(sess.ID, "video-file", result.Classification, result.ProcessingTime, ""); err != nil {
				log.Printf("failed to record classification: %v", err)
			}
		}
	}
	if err := scan.Err(); err != nil {
		log.Fatalf("failed to read recording: %v", err)
	}

	fmt.Printf("replayed %d observations: %d classifications, %d failed windows (session %s)\n",
		observations, classifications, failures, sess.ID)
}

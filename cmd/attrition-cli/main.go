package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/attrition/internal/client"
	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/pkg/logger"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 30 * time.Second
)

var errUsage = errors.New("usage")

const usage = `HR Turnover Prediction CLI
==========================

Usage:
  attrition-cli [global options] <command> [command options]

Commands:
  health                 Show service health
  predict -file FILE     Predict one employee read from a JSON object
  batch -file FILE       Predict a JSON array of employees or {"employees": [...]}
  examples               Predict the built-in stable and at-risk employees

Global options:
  -url string            Base URL of the service (default "http://localhost:9080")
  -timeout duration      HTTP request timeout (default 30s)
  -retries int           Retries for transport errors and 503 answers (default 2)
  -verbose               Enable debug logging
`

func main() {
	if err := logger.InitWithOptions(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Stderr.WriteString(usage)
			os.Exit(2)
		}
		logger.Get().Error(ctx, "command failed", logger.Error(err))
		os.Exit(1)
	}
}

// run parses global flags, then dispatches to the command.
func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("attrition-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		baseURL = fs.String("url", defaultURL, "Base URL of the service")
		timeout = fs.Duration("timeout", defaultTimeout, "HTTP request timeout")
		retries = fs.Int("retries", 2, "Retry count")
		verbose = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	c := client.New(*baseURL, client.WithTimeout(*timeout), client.WithRetries(*retries))
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	logger.Get().Debug(ctx, "running command", logger.String("command", cmd), logger.String("url", c.BaseURL()))

	switch cmd {
	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, h)
	case "predict":
		path, err := fileFlag("predict", rest)
		if err != nil {
			return err
		}
		var rec employee.Record
		if err := readJSON(path, &rec); err != nil {
			return err
		}
		p, err := c.Predict(ctx, rec)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	case "batch":
		path, err := fileFlag("batch", rest)
		if err != nil {
			return err
		}
		recs, err := readBatch(path)
		if err != nil {
			return err
		}
		b, err := c.PredictBatch(ctx, recs)
		if err != nil {
			return err
		}
		return printJSON(out, b)
	case "examples":
		return runExamples(ctx, c, out)
	case "help", "-h", "--help":
		_, err := io.WriteString(out, usage)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runExamples(ctx context.Context, c *client.Client, out io.Writer) error {
	examples := []struct {
		name string
		rec  employee.Record
	}{
		{"stable", employee.StableExample()},
		{"at_risk", employee.AtRiskExample()},
	}
	results := make(map[string]client.Prediction, len(examples))
	for _, ex := range examples {
		p, err := c.Predict(ctx, ex.rec)
		if err != nil {
			return fmt.Errorf("example %s: %w", ex.name, err)
		}
		results[ex.name] = p
	}
	return printJSON(out, results)
}

func fileFlag(cmd string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("file", "", "JSON input file")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if *path == "" {
		return "", fmt.Errorf("%w: %s requires -file", errUsage, cmd)
	}
	return *path, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// readBatch accepts either a bare array or the request envelope.
func readBatch(path string) ([]employee.Record, error) {
	var raw json.RawMessage
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	var recs []employee.Record
	if err := json.Unmarshal(raw, &recs); err == nil {
		return recs, nil
	}
	var envelope struct {
		Employees []employee.Record `json:"employees"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return envelope.Employees, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

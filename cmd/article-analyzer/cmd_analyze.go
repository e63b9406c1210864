package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/article-analyzer/analysis"
)

type analyzeOptions struct {
	file   string
	topic  string
	format string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one article and print the result",
		Long: `Runs one analysis without the HTTP server. The article is read from
--file, or from stdin when --file is empty or "-".`,
		Example: `  article-analyzer analyze --file post.md --topic "go generics"
  cat post.md | article-analyzer analyze --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), root, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Article file (default stdin)")
	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "Target topic or search term")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "json", "Output format: json or yaml")
	return cmd
}

func runAnalyze(ctx context.Context, root *rootOptions, opts *analyzeOptions, stdin io.Reader, stdout io.Writer) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q: use json or yaml", opts.format)
	}

	text, err := readArticle(opts.file, stdin)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cfg.Log.NewLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.pipeline.Analyze(ctx, analysis.Request{Text: text, Topic: opts.topic})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return writeResponse(stdout, resp, opts.format)
}

func readArticle(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read article: %w", err)
	}
	return string(data), nil
}

// writeResponse prints resp as two-space indented JSON or as YAML. The
// YAML form keeps the key order of each model reply.
func writeResponse(w io.Writer, resp analysis.Response, format string) error {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}

	if format == "json" {
		_, err := io.WriteString(w, buf.String())
		return err
	}

	// YAML is a superset of JSON; decoding into a node keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(buf.String()), &node); err != nil {
		return err
	}
	setBlockStyle(&node)

	yenc := yaml.NewEncoder(w)
	yenc.SetIndent(2)
	if err := yenc.Encode(&node); err != nil {
		return err
	}
	return yenc.Close()
}

// setBlockStyle clears the flow style the JSON source implies so the
// output reads as ordinary block YAML.
func setBlockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		setBlockStyle(c)
	}
}

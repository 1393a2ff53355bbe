package output

import (
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes the same document as JSONFormatter, encoded as YAML.
type YAMLFormatter struct {
	writer    io.Writer
	collector reportCollector
}

type YAMLOption func(*YAMLFormatter)

func NewYAMLFormatter(opts ...YAMLOption) *YAMLFormatter {
	f := &YAMLFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func YAMLWithWriter(w io.Writer) YAMLOption {
	return func(f *YAMLFormatter) {
		f.writer = w
	}
}

func (f *YAMLFormatter) FormatResult(result *runner.RunResult) {
	f.collector.add(result)
}

func (f *YAMLFormatter) FormatError(err error) {}

func (f *YAMLFormatter) FormatHeader(version string) {}

func (f *YAMLFormatter) Flush(totalDuration time.Duration) error {
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(f.collector.report(totalDuration)); err != nil {
		return err
	}
	return encoder.Close()
}

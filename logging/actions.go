package logging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ActionsFormatter renders entries as GitHub Actions workflow commands so
// warnings and errors show up as annotations. Info entries are plain lines.
type ActionsFormatter struct{}

var _ logrus.Formatter = (*ActionsFormatter)(nil)

// Format implements logrus.Formatter.
func (f *ActionsFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	msg := entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf(" %s=%v", k, entry.Data[k])
		}
	}

	switch entry.Level {
	case logrus.TraceLevel, logrus.DebugLevel:
		b.WriteString("::debug::")
		b.WriteString(escapeData(msg))
	case logrus.WarnLevel:
		b.WriteString("::warning::")
		b.WriteString(escapeData(msg))
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		b.WriteString("::error::")
		b.WriteString(escapeData(msg))
	default:
		b.WriteString(msg)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// escapeData escapes a workflow command payload.
func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

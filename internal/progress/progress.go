// Package progress writes the append-only stage log: one
// "<timestamp> : <message>" line per pipeline transition.
package progress

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimestampFormat renders e.g. 2023-Sep-08-09:16:35.
const DefaultTimestampFormat = "%Y-%b-%d-%H:%M:%S"

const separator = " : "

// unlimitedSizeMB stands in for "no rotation"; lumberjack treats 0 as 100 MB.
const unlimitedSizeMB = math.MaxInt32

// Entry is one line of the progress log.
type Entry struct {
	Timestamp time.Time
	Message   string
}

// Options configures a file-backed Log.
type Options struct {
	TimestampFormat string // strftime pattern; DefaultTimestampFormat when empty
	MaxSizeMB       int    // rotate after this many megabytes; 0 never rotates
	MaxBackups      int
}

// Log appends progress entries to a writer.
type Log struct {
	logger *logrus.Logger
	closer io.Closer
	now    func() time.Time
}

// Open returns a Log appending to the file at path. The file and its
// directory are created on first write.
func Open(path string, opts Options) *Log {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = unlimitedSizeMB
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
	}
	l := New(lj, opts.TimestampFormat)
	l.closer = lj
	return l
}

// New returns a Log writing to w.
func New(w io.Writer, timestampFormat string) *Log {
	if timestampFormat == "" {
		timestampFormat = DefaultTimestampFormat
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&lineFormatter{timestampFormat: timestampFormat})
	return &Log{logger: logger, now: time.Now}
}

// SetClock replaces the time source, for tests.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

// Record appends one line for msg.
func (l *Log) Record(msg string) {
	l.logger.WithTime(l.now()).Info(msg)
}

// Close releases the underlying file, if any.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// lineFormatter renders "<timestamp> : <message>\n" and ignores fields.
type lineFormatter struct {
	timestampFormat string
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(FormatEntry(Entry{Timestamp: e.Time, Message: e.Message}, f.timestampFormat) + "\n"), nil
}

// FormatEntry renders e as a log line without the trailing newline.
func FormatEntry(e Entry, timestampFormat string) string {
	return strftime.Format(timestampFormat, e.Timestamp) + separator + e.Message
}

// ParseEntry parses a log line written with timestampFormat.
func ParseEntry(line, timestampFormat string) (Entry, error) {
	ts, msg, ok := strings.Cut(line, separator)
	if !ok {
		return Entry{}, fmt.Errorf("missing %q separator in %q", strings.TrimSpace(separator), line)
	}
	t, err := strftime.Parse(timestampFormat, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	return Entry{Timestamp: t, Message: msg}, nil
}

// Read returns all entries of the log at path. A missing file yields no
// entries and no error.
func Read(path, timestampFormat string) ([]Entry, error) {
	if timestampFormat == "" {
		timestampFormat = DefaultTimestampFormat
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening progress log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := ParseEntry(line, timestampFormat)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading progress log: %w", err)
	}
	return entries, nil
}

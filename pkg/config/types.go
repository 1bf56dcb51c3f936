package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Verbosity is the debug message level: off, summary or verbose.
type Verbosity int

const (
	VerbosityOff Verbosity = iota
	VerbositySummary
	VerbosityVerbose
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityOff:
		return "off"
	case VerbositySummary:
		return "summary"
	case VerbosityVerbose:
		return "verbose"
	}
	return "unknown(" + strconv.Itoa(int(v)) + ")"
}

// LogrusLevel maps the verbosity onto a log level.
func (v Verbosity) LogrusLevel() logrus.Level {
	switch {
	case v <= VerbosityOff:
		return logrus.WarnLevel
	case v == VerbositySummary:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// ParseVerbosity accepts a name or the numeric level 0, 1 or 2.
func ParseVerbosity(s string) (Verbosity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i, err := strconv.Atoi(s); err == nil {
		if i < int(VerbosityOff) || i > int(VerbosityVerbose) {
			return 0, pkgerrors.Errorf("debug level must be 0, 1 or 2, got %d", i)
		}
		return Verbosity(i), nil
	}
	switch s {
	case "off", "none", "":
		return VerbosityOff, nil
	case "summary":
		return VerbositySummary, nil
	case "verbose":
		return VerbosityVerbose, nil
	}
	return 0, pkgerrors.Errorf("unknown debug level %q, must be off, summary or verbose", s)
}

func (v Verbosity) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verbosity) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var s string
	switch t := raw.(type) {
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		s = t
	default:
		return pkgerrors.Errorf("debug level must be a string or number, got %s", string(b))
	}
	parsed, err := ParseVerbosity(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Verbosity) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

func (v *Verbosity) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseVerbosity(node.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Duration is stored as a Go duration string ("15s", "100ms"). A bare
// number is read as seconds, the unit older firmware revisions used.
type Duration time.Duration

// ParseDuration parses a duration string or a number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "invalid duration %q", s)
	}
	return Duration(d), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var s string
	switch t := raw.(type) {
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		s = t
	default:
		return pkgerrors.Errorf("duration must be a string or number, got %s", string(b))
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

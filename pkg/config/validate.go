package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/board"
	"github.com/magtag-badge/badge/pkg/co2"
)

// resolved carries the field-level rules. Cross-field and table checks are
// done by hand in Validate.
type resolved struct {
	Email                    string        `json:"email" validate:"omitempty,email"`
	BatteryCapacityMah       int           `json:"batteryCapacityMah" validate:"gt=0"`
	SiteAltitudeMeters       int           `json:"siteAltitudeMeters" validate:"gte=0,lte=3000"`
	TemperatureOffsetCelsius float64       `json:"temperatureOffsetCelsius" validate:"gte=0,lte=20"`
	SampleInterval           time.Duration `json:"sampleInterval" validate:"gt=0"`
	ReadsPerSample           int           `json:"readsPerSample" validate:"gte=1"`
	SampleSize               int           `json:"sampleSize" validate:"gte=1,lte=32"`
	ScreenSwapInterval       time.Duration `json:"screenSwapInterval" validate:"gt=0"`
	ButtonDebounce           time.Duration `json:"buttonDebounce" validate:"gt=0"`
	HardwareErrorInterval    time.Duration `json:"hardwareErrorInterval" validate:"gt=0"`
	WakeButtons              []string      `json:"wakeButtons" validate:"min=1"`
	CO2Revision              string        `json:"co2Revision" validate:"required"`
	NeoPixelCount            int           `json:"neoPixelCount" validate:"gte=0,lte=4"`
	NeoPixelBrightness       int           `json:"neoPixelBrightness" validate:"gte=0,lte=255"`
	QRVersion                int           `json:"qr.version" validate:"gte=1,lte=40"`
	QRScale                  int           `json:"qr.scale" validate:"gte=1"`
}

// ScheduleParser parses publish schedules: standard cron with optional
// seconds, or descriptors such as "@every 5m".
var ScheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var brokerSchemes = map[string]struct{}{
	"tcp": {}, "ssl": {}, "tls": {}, "mqtt": {}, "mqtts": {}, "ws": {}, "wss": {},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every field of c and reports all problems at once.
func Validate(c Config) error {
	if c == nil {
		return pkgerrors.New("config is nil")
	}

	q := c.QR()
	r := resolved{
		Email:                    c.Email(),
		BatteryCapacityMah:       c.BatteryCapacityMah(),
		SiteAltitudeMeters:       c.SiteAltitudeMeters(),
		TemperatureOffsetCelsius: c.TemperatureOffsetCelsius(),
		SampleInterval:           c.SampleInterval(),
		ReadsPerSample:           c.ReadsPerSample(),
		SampleSize:               c.SampleSize(),
		ScreenSwapInterval:       c.ScreenSwapInterval(),
		ButtonDebounce:           c.ButtonDebounce(),
		HardwareErrorInterval:    c.HardwareErrorInterval(),
		WakeButtons:              c.WakeButtons(),
		CO2Revision:              c.CO2Revision(),
		NeoPixelCount:            c.NeoPixelCount(),
		NeoPixelBrightness:       c.NeoPixelBrightness(),
		QRVersion:                q.Version,
		QRScale:                  q.Scale,
	}

	var problems []string

	if err := getValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !pkgerrors.As(err, &verrs) {
			return pkgerrors.Wrap(err, "failed to validate config")
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if r.ButtonDebounce > 0 && r.SampleInterval > 0 && r.ButtonDebounce >= r.SampleInterval {
		problems = append(problems, fmt.Sprintf("buttonDebounce (%s) must be shorter than sampleInterval (%s)", r.ButtonDebounce, r.SampleInterval))
	}

	if _, err := board.ParseButtons(r.WakeButtons); err != nil {
		problems = append(problems, err.Error())
	}

	if t, err := co2.Revision(r.CO2Revision); err != nil {
		problems = append(problems, err.Error())
	} else if err := t.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := battery.APAFor(r.BatteryCapacityMah); err != nil {
		problems = append(problems, err.Error())
	}

	// Only check the QR payload once the basic ranges are sane, otherwise
	// the same problem is reported twice.
	if r.QRVersion >= 1 && r.QRVersion <= 40 && r.QRScale >= 1 {
		if p, err := QRParams(c); err != nil {
			problems = append(problems, err.Error())
		} else if err := p.Validate(board.DisplayHeight); err != nil {
			problems = append(problems, err.Error())
		}
	}

	problems = append(problems, validatePublish(c.Publish())...)

	if len(problems) == 0 {
		return nil
	}

	return pkgerrors.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
}

func validatePublish(p PublishConfig) []string {
	// Publishing is off without a broker; nothing else matters then.
	if p.Broker == "" {
		return nil
	}

	var problems []string

	u, err := url.Parse(p.Broker)
	if err != nil {
		problems = append(problems, fmt.Sprintf("publish.broker %q is not a valid url: %v", p.Broker, err))
	} else if _, ok := brokerSchemes[u.Scheme]; !ok || u.Host == "" {
		problems = append(problems, fmt.Sprintf("publish.broker %q must look like tcp://host:1883 or ssl://host:8883", p.Broker))
	}

	if _, err := ScheduleParser.Parse(p.Schedule); err != nil {
		problems = append(problems, fmt.Sprintf("publish.schedule %q is invalid: %v", p.Schedule, err))
	}

	return problems
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("%s %q is not a valid email address", field, fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

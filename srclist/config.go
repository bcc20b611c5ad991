package srclist

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/cwbudde/algo-rmsynth/rm/spectral"
)

// TypeCalibrator marks sources that also go into the calibration list.
const TypeCalibrator = "calibrator"

// maxChannels bounds the simulated band so a mistyped bw cannot exhaust
// memory.
const maxChannels = 1 << 20

var ErrInvalidConfig = errors.New("srclist: invalid config")

// Config is a sourcelist description.
type Config struct {
	ObsID       string                  `yaml:"obsid" validate:"required"`
	PointCenter PointCenter             `yaml:"point_center"`
	SimFreqs    SimFreqs                `yaml:"sim_freqs"`
	Sources     map[string]SourceParams `yaml:"sources" validate:"required,min=1,dive,keys,required,endkeys"`

	// order holds the source names as they appear in the YAML file.
	order []string
}

// PointCenter is the ICRS pointing centre in degrees.
type PointCenter struct {
	RA  *float64 `yaml:"ra" validate:"required"`
	Dec *float64 `yaml:"dec" validate:"required,gte=-90,lte=90"`
}

// SimFreqs is the simulated band in Hz: low, low+bw, ... through high.
type SimFreqs struct {
	LowFreq  *float64 `yaml:"low_freq" validate:"required,gt=0"`
	HighFreq *float64 `yaml:"high_freq" validate:"required,gt=0"`
	BW       *float64 `yaml:"bw" validate:"required,gt=0"`
}

// SourceParams describes one source. Offsets are in degrees from the
// pointing centre.
type SourceParams struct {
	Type          string   `yaml:"type" validate:"required"`
	DelRA         *float64 `yaml:"del_ra" validate:"required"`
	DelDec        *float64 `yaml:"del_dec" validate:"required"`
	RM            *float64 `yaml:"rm" validate:"required"`
	RefI          *float64 `yaml:"ref_I_Jy" validate:"required"`
	RefV          *float64 `yaml:"ref_V_Jy" validate:"required"`
	SpectralIndex *float64 `yaml:"SI" validate:"required"`
	FracPol       *float64 `yaml:"frac_pol" validate:"required,gte=0,lte=1"`
	RefFreq       *float64 `yaml:"ref_freq" validate:"omitempty,gt=0"`
}

// Source returns the spectral model of p. A missing ref_freq means
// spectral.DefaultRefFreq.
func (p SourceParams) Source() spectral.Source {
	var opts []spectral.SourceOption
	if p.RefFreq != nil {
		opts = append(opts, spectral.WithRefFreq(*p.RefFreq))
	}
	return spectral.NewSource(deref(p.RM), deref(p.RefI), deref(p.RefV), deref(p.SpectralIndex), deref(p.FracPol), opts...)
}

// IsCalibrator reports whether the source belongs in the calibration list.
func (p SourceParams) IsCalibrator() bool { return p.Type == TypeCalibrator }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FieldError is one validation failure. Field is the YAML path, e.g.
// "sources[3C286].frac_pol".
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// ConfigError collects every validation failure of a config.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("srclist: read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	order, err := sourceOrder(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.order = order
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole config and reports every failure at once as a
// *ConfigError.
func (c *Config) Validate() error {
	var fields []FieldError

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   trimNamespace(fe.Namespace()),
				Message: formatFieldError(fe),
			})
		}
	}

	fields = append(fields, c.crossFieldErrors()...)
	if len(fields) == 0 {
		return nil
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &ConfigError{Fields: fields}
}

func (c *Config) crossFieldErrors() []FieldError {
	var out []FieldError

	sf := c.SimFreqs
	if sf.LowFreq != nil && sf.HighFreq != nil && *sf.HighFreq < *sf.LowFreq {
		out = append(out, FieldError{
			Field:   "sim_freqs.high_freq",
			Message: fmt.Sprintf("must be at least low_freq (%v)", *sf.LowFreq),
		})
	}
	if sf.LowFreq != nil && sf.HighFreq != nil && sf.BW != nil && *sf.BW > 0 {
		if n := math.Ceil((*sf.HighFreq + *sf.BW - *sf.LowFreq) / *sf.BW); n > maxChannels {
			out = append(out, FieldError{
				Field:   "sim_freqs.bw",
				Message: fmt.Sprintf("gives %v channels, more than %d", n, maxChannels),
			})
		}
	}

	for name, p := range c.Sources {
		if strings.ContainsAny(name, " \t") {
			out = append(out, FieldError{
				Field:   "sources[" + name + "]",
				Message: "name must not contain whitespace",
			})
		}
		if c.PointCenter.Dec == nil || p.DelDec == nil {
			continue
		}
		if dec := *c.PointCenter.Dec + *p.DelDec; dec < -90 || dec > 90 {
			out = append(out, FieldError{
				Field:   "sources[" + name + "].del_dec",
				Message: fmt.Sprintf("puts the source at dec %v, outside [-90, 90]", dec),
			})
		}
	}
	return out
}

// trimNamespace drops the root struct name: "Config.sim_freqs.bw" becomes
// "sim_freqs.bw".
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Frequencies returns the simulated channel frequencies in Hz.
func (c *Config) Frequencies() ([]float64, error) {
	return spectral.FrequencyRange(deref(c.SimFreqs.LowFreq), deref(c.SimFreqs.HighFreq), deref(c.SimFreqs.BW))
}

// Names returns the source names in the order of the YAML file. Sources
// added after parsing, or a config built in code, follow in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sources))
	seen := make(map[string]bool, len(c.Sources))
	for _, name := range c.order {
		if _, ok := c.Sources[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range c.Sources {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// sourceOrder returns the keys of the sources mapping in file order.
func sourceOrder(data []byte) ([]string, error) {
	var doc struct {
		Sources yaml.MapSlice `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Sources))
	for _, item := range doc.Sources {
		names = append(names, fmt.Sprint(item.Key))
	}
	return names, nil
}

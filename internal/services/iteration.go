package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/session"
)

// ErrNoExecutionConfiguration is returned by Capture when the stored run
// carries no execution configuration to iterate upon.
var ErrNoExecutionConfiguration = errors.New("could not find the original execution configuration to iterate upon")

// DefaultIteratedFilename is recorded when the run had an overview but no filename.
const DefaultIteratedFilename = "Previously used file"

// FormPrefill is what the analysis form needs to reproduce a previous run.
type FormPrefill struct {
	Filename string
	// Values maps input element ids to their values.
	Values map[string]string
	// Radios maps radio group names to the value to check.
	Radios map[string]string
	// Checkboxes lists checkbox ids to check.
	Checkboxes []string
	// ChangeEvents lists radio groups whose change handlers must run after
	// the form is filled, in order.
	ChangeEvents []string
}

func (p *FormPrefill) Value(id string) string {
	if p == nil {
		return ""
	}
	return p.Values[id]
}

func (p *FormPrefill) RadioChecked(name, value string) bool {
	return p != nil && p.Radios[name] == value
}

func (p *FormPrefill) IsChecked(id string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Checkboxes {
		if c == id {
			return true
		}
	}
	return false
}

type fieldMapping struct {
	id    string
	paths [][]string
}

// formFields maps configuration fields to form input ids. Flat keys come
// from older clients; the nested paths follow execution_configuration.
var formFields = []fieldMapping{
	{"manual_symbol", [][]string{{"manual_symbol"}, {"data_source", "symbols"}}},
	{"start_date", [][]string{{"start_date"}, {"data_source", "start_date"}}},
	{"end_date", [][]string{{"end_date"}, {"data_source", "end_date"}}},
	{"scaling_method", [][]string{{"data_processing", "scaling_method"}}},
	{"p_value", [][]string{{"arima_params", "p"}, {"model_configurations", "arima_params", "p"}}},
	{"d_value", [][]string{{"arima_params", "d"}, {"model_configurations", "arima_params", "d"}}},
	{"q_value", [][]string{{"arima_params", "q"}, {"model_configurations", "arima_params", "q"}}},
	{"garch_p", [][]string{{"garch_params", "p"}, {"model_configurations", "garch_params", "p"}}},
	{"garch_q", [][]string{{"garch_params", "q"}, {"model_configurations", "garch_params", "q"}}},
	{"lags", [][]string{{"var_lags"}, {"spillover_configuration", "var_max_lags"}}},
	{"forecast_steps", [][]string{{"forecast_steps"}, {"model_configurations", "arima_params", "forecast_steps"}}},
	{"spillover_lags", [][]string{{"spillover_lags"}, {"spillover_configuration", "spillover_params", "forecast_horizon"}}},
}

// radioFields are filled before the inputs and fire change events.
var radioFields = []fieldMapping{
	{"data_source", [][]string{{"data_source"}, {"data_source", "source_type"}}},
	{"symbol_list", [][]string{{"symbol_list"}}},
}

// IterationService carries a finished run's configuration to the analysis
// form through the session store. The hand-off is consumed exactly once.
type IterationService struct {
	store  session.Store
	logger *slog.Logger
}

func NewIterationService(store session.Store, logger *slog.Logger) *IterationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IterationService{store: store, logger: logger}
}

// Capture copies the stored run's execution configuration under the
// iteration key, recording the filename when the run had an overview.
func (s *IterationService) Capture(ctx context.Context, sid string) error {
	raw, ok := session.LoadRawResponse(ctx, s.store, sid, s.logger)
	if !ok {
		return ErrNoExecutionConfiguration
	}
	execCfg, ok := raw.Object("execution_configuration")
	if !ok {
		return ErrNoExecutionConfiguration
	}

	cfg := make(map[string]any, len(execCfg)+1)
	for k, v := range execCfg {
		cfg[k] = v
	}
	if overview, ok := models.Lookup(raw.Fields, "processed_results", "overview"); ok && models.AsMap(overview) != nil {
		name := models.AsMap(overview)["filename"]
		if models.Truthy(name) {
			cfg["filename"] = name
		} else {
			cfg["filename"] = DefaultIteratedFilename
		}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode iteration config: %w", err)
	}
	if err := s.store.Set(ctx, sid, session.KeyIterationConfig, string(data)); err != nil {
		return err
	}
	s.logger.Info("Stored execution configuration for iteration", "keys", len(cfg))
	return nil
}

// Consume takes the iteration configuration, so only one form load
// receives it. It returns nil when none is pending; an unreadable value is
// discarded.
func (s *IterationService) Consume(ctx context.Context, sid string) (*FormPrefill, error) {
	value, ok, err := s.store.Take(ctx, sid, session.KeyIterationConfig)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()
	var cfg map[string]any
	if err := dec.Decode(&cfg); err != nil || cfg == nil {
		s.logger.Debug("Discarding unreadable iteration config", "error", err)
		return nil, nil
	}
	return BuildFormPrefill(cfg), nil
}

// BuildFormPrefill maps an execution configuration onto the analysis form.
func BuildFormPrefill(cfg map[string]any) *FormPrefill {
	p := &FormPrefill{
		Values: map[string]string{},
		Radios: map[string]string{},
	}

	for _, key := range []string{"filename", "fileName"} {
		if name := models.TextOf(cfg[key]); name != "" {
			p.Filename = name
			break
		}
	}

	for _, f := range radioFields {
		if v, ok := firstText(cfg, f.paths); ok {
			p.Radios[f.id] = v
			p.ChangeEvents = append(p.ChangeEvents, f.id)
		}
	}
	for _, f := range formFields {
		if v, ok := firstText(cfg, f.paths); ok {
			p.Values[f.id] = v
		}
	}

	if prices := anchorPrices(cfg); prices != "" {
		p.Values["anchor_prices"] = prices
	}

	if steps, ok := models.StringList(cfg["preprocess"]); ok {
		for _, step := range steps {
			p.Checkboxes = append(p.Checkboxes, "preprocess_"+step)
		}
	} else if dp := models.AsMap(cfg["data_processing"]); dp != nil {
		if models.AsBool(dp["missing_values_enabled"]) {
			p.Checkboxes = append(p.Checkboxes, "preprocess_missing_values")
		}
		if models.AsBool(dp["stationarity_test_enabled"]) {
			p.Checkboxes = append(p.Checkboxes, "preprocess_stationarity_test")
		}
	}
	return p
}

// firstText returns the first path holding a scalar or list, as form text.
// Lists are comma-joined. Zero numbers count as set.
func firstText(cfg map[string]any, paths [][]string) (string, bool) {
	for _, path := range paths {
		v, ok := models.Lookup(cfg, path...)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			continue
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				parts = append(parts, models.CellText(item))
			}
			return strings.Join(parts, ","), true
		default:
			if !models.Truthy(v) && !isZeroNumber(v) {
				continue
			}
			return models.CellText(v), true
		}
	}
	return "", false
}

// anchorPrices lists the synthetic anchor prices in symbol order.
func anchorPrices(cfg map[string]any) string {
	v, _ := models.Lookup(cfg, "data_source", "synthetic_anchor_prices")
	prices := models.AsMap(v)
	if len(prices) == 0 {
		return ""
	}
	symbols, _ := models.StringList(lookupValue(cfg, "data_source", "symbols"))
	if len(symbols) == 0 {
		symbols = models.SortedKeys(prices)
	}
	parts := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if price, ok := prices[sym]; ok {
			parts = append(parts, models.CellText(price))
		}
	}
	return strings.Join(parts, ",")
}

func lookupValue(v any, path ...string) any {
	out, _ := models.Lookup(v, path...)
	return out
}

func isZeroNumber(v any) bool {
	f, ok := models.AsFloat(v)
	return ok && f == 0
}

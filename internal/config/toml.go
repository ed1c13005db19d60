package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// TOMLParser adapts BurntSushi/toml to the koanf Parser interface.
type TOMLParser struct{}

// TOML returns a koanf parser for TOML documents.
func TOML() *TOMLParser {
	return &TOMLParser{}
}

// Unmarshal decodes TOML bytes into a nested map.
func (p *TOMLParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return out, nil
}

// Marshal encodes a nested map as TOML.
func (p *TOMLParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Template returns the commented config file written by `concerto config`.
func Template() string {
	d := Default()
	c := d.Catalog.Columns
	return fmt.Sprintf(`# concerto configuration
# Uncomment a value to enable it. CLI flags override config values,
# CONCERTO_<SECTION>_<KEY> environment variables override the file.

[catalog]
# path = %q    # Parquet, CSV or JSON dataset

[catalog.columns]
# program_id = %q
# work_order = %q
# title = %q
# composer = %q
# conductor = %q
# session = %q
# series = %q
# weekday = %q
# month = %q

[storage]
# db = %q
# ratings_dir = %q

[log]
# level = %q        # trace, debug, info, warn, error
# format = %q     # console or json
# file = %q

[serve]
# addr = %q
# login_rate_limit = %d     # login/register attempts per window and IP
# login_rate_window = %q

[coverage]
# weight_3 = %g
# weight_2 = %g
# weight_1 = %g
`,
		d.Catalog.Path,
		c.ProgramID, c.WorkOrder, c.Title, c.Composer, c.Conductor, c.Session, c.Series, c.Weekday, c.Month,
		d.Storage.DB, d.Storage.RatingsDir,
		d.Log.Level, d.Log.Format, d.Log.File,
		d.Serve.Addr, d.Serve.LoginRateLimit, d.Serve.LoginRateWindow.String(),
		d.Coverage.Weight3, d.Coverage.Weight2, d.Coverage.Weight1,
	)
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/text/encoding/korean"

	"github.com/Sumatoshi-tech/colprofile/pkg/config"
	"github.com/Sumatoshi-tech/colprofile/pkg/observability"
	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/report"
	"github.com/Sumatoshi-tech/colprofile/pkg/source"
	"github.com/Sumatoshi-tech/colprofile/pkg/table"
	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
)

const sitesCSV = "name,region\na,Seoul\nb,Busan\nc,Seoul\n"

type harness struct {
	deps     deps
	recorder *tracetest.SpanRecorder
	config   string
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "colprofile.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o600))

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	return &harness{
		deps: deps{
			loadConfig: config.LoadConfig,
			initTelemetry: func(_ context.Context, cfg observability.Config) (observability.Providers, error) {
				return observability.Providers{
					Tracer:   tp.Tracer("colprofile-test"),
					Meter:    noop.NewMeterProvider().Meter("colprofile-test"),
					Logger:   observability.NewLogger(cfg),
					Shutdown: tp.Shutdown,
				}, nil
			},
			newFetcher: newRemoteFetcher,
		},
		recorder: rec,
		config:   cfgPath,
		dir:      dir,
	}
}

func (h *harness) file(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func (h *harness) spanNames() []string {
	var names []string
	for _, s := range h.recorder.Ended() {
		names = append(names, s.Name())
	}

	return names
}

func runProfile(t *testing.T, h *harness, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newProfileCommandWithDeps(h.deps)

	var out, errOut bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.config}, args...))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func decodeReport(t *testing.T, out string) report.Report {
	t.Helper()

	require.NoError(t, report.ValidateJSON([]byte(out)))

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	return rep
}

func TestParseColumnRef(t *testing.T) {
	t.Parallel()

	spec, err := ParseColumnRef("9=월", profile.SortValue)
	require.NoError(t, err)
	assert.Equal(t, profile.ColumnSpec{Index: 9, Label: "월", Sort: profile.SortValue}, spec)

	spec, err = ParseColumnRef(" 업태 = Business ", profile.SortCount)
	require.NoError(t, err)
	assert.Equal(t, "업태", spec.Name)
	assert.Equal(t, -1, spec.Index)
	assert.Equal(t, "Business", spec.Label)
	assert.Equal(t, profile.SortCount, spec.Sort)

	_, err = ParseColumnRef("=label", profile.SortCount)
	require.ErrorIs(t, err, ErrInvalidColumnRef)

	_, err = ParseColumnRef("", profile.SortValue)
	require.ErrorIs(t, err, ErrInvalidColumnRef)
}

func TestDefaultToProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "location", args: []string{"data.csv"}, want: []string{"profile", "data.csv"}},
		{name: "flags first", args: []string{"--top", "3", "data.csv"}, want: []string{"profile", "--top", "3", "data.csv"}},
		{name: "subcommand", args: []string{"inspect", "data.csv"}, want: []string{"inspect", "data.csv"}},
		{name: "version", args: []string{"version"}, want: []string{"version"}},
		{name: "help", args: []string{"--help"}, want: []string{"--help"}},
		{name: "empty", args: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, DefaultToProfile(NewRootCommand(), tt.args))
		})
	}
}

func TestProfileCommandJSON(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))

	out, err := runProfile(t, h, "", path, "--top", "region=Region", "--values", "0", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, path, rep.Source.Location)
	assert.Equal(t, "utf-8", rep.Encoding.Name)
	assert.Equal(t, 3, rep.Rows)
	require.Len(t, rep.Sections, 2)

	region := rep.Sections[0]
	assert.Equal(t, "Region", region.Label)
	assert.Equal(t, profile.SortCount, region.Sort)
	assert.Equal(t, []profile.ValueCount{{Value: "Seoul", Count: 2}, {Value: "Busan", Count: 1}}, region.Values)

	name := rep.Sections[1]
	assert.Equal(t, "name", name.Header)
	assert.Equal(t, "A", name.Letter)
	assert.Equal(t, []profile.ValueCount{{Value: "a", Count: 1}, {Value: "b", Count: 1}, {Value: "c", Count: 1}}, name.Values)

	assert.Contains(t, h.spanNames(), "colprofile.run")
	assert.Contains(t, h.spanNames(), "colprofile.profile")
}

func TestProfileCommandEUCKRText(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	data, err := korean.EUCKR.NewEncoder().Bytes([]byte("업태,지역\n제조,서울\n제조,부산\n도소매,서울\n"))
	require.NoError(t, err)

	path := h.file(t, "sites.csv", data)

	out, err := runProfile(t, h, "", path, "--top", "업태", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "encoding: euc-kr")
	assert.Contains(t, out, "tried utf-8")
	assert.Contains(t, out, "== 업태 [column A] ==")
	assert.Contains(t, out, "제조")
	assert.NotContains(t, out, "\x1b[")
}

func TestProfileCommandAllColumnsByDefault(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, err := runProfile(t, h, sitesCSV, "--stdin", "--format", "json", "--skip-empty", "--exclude", "Busan")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, "stdin", rep.Source.Location)
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, []profile.ValueCount{{Value: "Seoul", Count: 2}}, rep.Sections[1].Values)
	assert.Equal(t, 1, rep.Sections[1].Excluded)
}

func TestProfileCommandStdinOverridesConfigURL(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := h.file(t, "remote.yaml", []byte("logging:\n  level: error\nsource:\n  url: https://example.test/sites.csv\n"))

	out, err := runProfile(t, h, sitesCSV, "--config", cfg, "--stdin", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Equal(t, "stdin", rep.Source.Location)
	assert.Equal(t, 3, rep.Rows)
}

func TestProfileCommandZeroSamples(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))

	out, err := runProfile(t, h, "", path, "--format", "json", "--samples", "0")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	assert.Empty(t, rep.Samples)
	assert.Len(t, rep.Header, 2)

	out, err = runProfile(t, h, "", path, "--samples", "0", "--no-color")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sample rows")
}

func TestProfileCommandConfigColumns(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))
	cfg := h.file(t, "columns.yaml", []byte(`profile:
  top_n: 1
  columns:
    - name: region
      label: Region
      sort: count
    - name: missing
`))

	cmd := newProfileCommandWithDeps(h.deps)

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "--format", "json", path})

	require.NoError(t, cmd.Execute())

	rep := decodeReport(t, out.String())
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, []profile.ValueCount{{Value: "Seoul", Count: 2}}, rep.Sections[0].Values)
	assert.True(t, rep.Sections[0].Truncated)
	assert.Equal(t, profile.StatusMissingColumn, rep.Sections[1].Status)
}

func TestProfileCommandHTTP(t *testing.T) {
	t.Parallel()

	userAgents := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents <- r.UserAgent()

		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sitesCSV))
	}))
	defer srv.Close()

	h := newHarness(t)

	out, err := runProfile(t, h, "", "--url", srv.URL+"/sites.csv", "--top", "1", "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "location: "+srv.URL+"/sites.csv")
	assert.Contains(t, out, "content_type: text/csv")
	assert.True(t, strings.HasPrefix(<-userAgents, "colprofile/"))

	var sawClientSpan bool

	for _, name := range h.spanNames() {
		if strings.HasPrefix(name, "GET ") {
			sawClientSpan = true
		}
	}

	assert.True(t, sawClientSpan, "spans: %v", h.spanNames())
}

func TestProfileCommandNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := newHarness(t)

	_, err := runProfile(t, h, "", srv.URL+"/missing.csv")
	require.Error(t, err)

	var netErr *source.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}

func TestProfileCommandDecodeError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "bad.csv", []byte{0x80, 0xFF, ',', 'a', '\n'})

	_, err := runProfile(t, h, "", path, "--encodings", "utf-8,euc-kr")
	require.Error(t, err)

	var decErr *textenc.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, []string{"utf-8", "euc-kr"}, decErr.Tried())
	assert.Contains(t, err.Error(), "euc-kr")
}

func TestProfileCommandRequireData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "header.csv", []byte("name,region\n"))

	out, err := runProfile(t, h, "", path, "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, out)
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, profile.StatusNoData, rep.Sections[0].Status)

	_, err = runProfile(t, h, "", path, "--require-data")
	require.NoError(t, err)

	empty := h.file(t, "empty.csv", nil)

	_, err = runProfile(t, h, "", empty, "--require-data")
	require.ErrorIs(t, err, table.ErrMalformedTable)
}

func TestProfileCommandOutputFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))
	xlsx := filepath.Join(h.dir, "report.xlsx")

	out, err := runProfile(t, h, "", path, "--top", "region", "--format", "xlsx", "--output", xlsx)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(xlsx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestProfileCommandInputErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))

	_, err := runProfile(t, h, "")
	require.ErrorIs(t, err, ErrNoLocation)

	_, err = runProfile(t, h, sitesCSV, "--stdin", path)
	require.ErrorIs(t, err, ErrConflictingInput)

	_, err = runProfile(t, h, sitesCSV, "--stdin", "--url", path)
	require.ErrorIs(t, err, ErrConflictingInput)

	_, err = runProfile(t, h, "", path, "--delimiter", "ab")
	require.ErrorIs(t, err, config.ErrInvalidDelimiter)

	_, err = runProfile(t, h, "", path, "--format", "pdf")
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	_, err = runProfile(t, h, "", path, "--top-n", "0")
	require.ErrorIs(t, err, config.ErrInvalidTopN)

	_, err = runProfile(t, h, "", path, "--top", "=x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrInvalidColumnRef.Error())
}

func TestInspectCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte("name;region\na;Seoul\nb;Busan\n"))

	cmd := newInspectCommandWithDeps(h.deps)

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", h.config, "--delimiter", ";", "--samples", "1", "--no-color", path})

	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "== Header (2 columns) ==")
	assert.Contains(t, text, "region")
	assert.Contains(t, text, "== Sample rows (1) ==")
	assert.Contains(t, text, "Seoul")
	assert.NotContains(t, text, "Busan")
}

func TestInspectCommandJSONHasNoColumns(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := h.file(t, "sites.csv", []byte(sitesCSV))

	cmd := newInspectCommandWithDeps(h.deps)

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", h.config, "--format", "json", path})

	require.NoError(t, cmd.Execute())

	rep := decodeReport(t, out.String())
	assert.Empty(t, rep.Sections)
	assert.Len(t, rep.Header, 2)
	assert.Len(t, rep.Samples, 3)

	assert.Contains(t, h.spanNames(), "colprofile.parse")
	assert.NotContains(t, h.spanNames(), "colprofile.profile")
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tbl, err := table.Parse(sitesCSV, table.ParseOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.JSONRenderer{}.Render(&buf, report.Build(report.Input{
		Location: "sites.csv",
		Decoded:  textenc.Result{Text: sitesCSV, Encoding: "utf-8"},
		Table:    tbl,
		Profiles: profile.NewProfiler(profile.Options{}).Profile(tbl, nil),
	})))

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, buf.Bytes(), 0o600))

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"rows": "many"}`), 0o600))

	run := func(stdin string, args ...string) (string, error) {
		cmd := NewValidateCommand()

		var out bytes.Buffer

		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(append([]string{"--no-color"}, args...))

		err := cmd.Execute()

		return out.String(), err
	}

	out, err := run("", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "valid report")

	out, err = run(buf.String(), "-")
	require.NoError(t, err)
	assert.Contains(t, out, "-: valid report")

	out, err = run("", invalid)
	require.ErrorIs(t, err, report.ErrInvalidReport)
	assert.Contains(t, out, "problem(s)")

	_, err = run("", filepath.Join(dir, "absent.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = run("{", "-")
	require.Error(t, err)
	assert.NotErrorIs(t, err, report.ErrInvalidReport)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "colprofile "))
	assert.Contains(t, out.String(), "commit:")
}

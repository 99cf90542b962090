package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sharepoint/internal/connectors/sharepoint"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

const testTenant = "https://contoso.sharepoint.com"

// fakeSessions always succeeds unless err is set.
type fakeSessions struct {
	err   error
	creds domain.Credentials
}

func (f *fakeSessions) Acquire(_ context.Context, creds domain.Credentials) (*domain.Session, error) {
	f.creds = creds
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Session{TenantURL: creds.TenantURL, AccessToken: "token"}, nil
}

// fakeTransport serves discovery rows, document rows and one change page
// per site.
type fakeTransport struct {
	mu        sync.Mutex
	sites     []domain.Row
	documents []domain.Row
	changes   map[string][]domain.RawChange
	openErr   map[string]error
	items     map[string]*domain.ListItem
	files     map[string]string
	libraries []string
	queries   []domain.SearchQuery
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		changes: make(map[string][]domain.RawChange),
		openErr: make(map[string]error),
		items:   make(map[string]*domain.ListItem),
		files:   make(map[string]string),
	}
}

func (f *fakeTransport) Search(_ context.Context, _ *domain.Session, q domain.SearchQuery) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)

	rows := f.documents
	if strings.Contains(q.QueryText, "contentclass:") {
		rows = f.sites
	}
	if q.StartRow >= len(rows) {
		return nil, nil
	}
	end := len(rows)
	if q.RowLimit > 0 {
		end = min(q.StartRow+q.RowLimit, end)
	}
	return rows[q.StartRow:end], nil
}

func (f *fakeTransport) OpenContainer(
	_ context.Context, _ *domain.Session, siteURL, library string,
) (*domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries = append(f.libraries, library)
	if err := f.openErr[siteURL]; err != nil {
		return nil, err
	}
	return &domain.Container{SiteURL: siteURL, ListID: "list", Title: library}, nil
}

func (f *fakeTransport) QueryChanges(
	_ context.Context, _ *domain.Session, c *domain.Container, token domain.ChangeToken,
) ([]domain.RawChange, error) {
	if token != "" {
		return nil, nil
	}
	return f.changes[c.SiteURL], nil
}

func (f *fakeTransport) GetListItem(
	_ context.Context, _ *domain.Session, _, _, itemID string,
) (*domain.ListItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (f *fakeTransport) Download(
	_ context.Context, _ *domain.Session, _, relativePath string,
) (io.ReadCloser, error) {
	content, ok := f.files[relativePath]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// fakeTempStore keeps saved files in memory.
type fakeTempStore struct {
	saved map[string]string
}

func (f *fakeTempStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	location := "/tmp/sercha_sp_" + name
	f.saved[location] = string(data)
	return location, nil
}

func row(kv ...string) domain.Row {
	var r domain.Row
	for i := 0; i+1 < len(kv); i += 2 {
		k, v := kv[i], kv[i+1]
		r.Cells = append(r.Cells, domain.Cell{Key: &k, Value: &v})
	}
	return r
}

func rawChange(kind domain.ChangeKind, id, token string) domain.RawChange {
	return domain.RawChange{
		Kind:       kind,
		Token:      domain.ChangeToken(token),
		Time:       "2024-06-01T00:00:00Z",
		Properties: domain.Properties{domain.PropUniqueID: id},
	}
}

// testServices are the fakes installed by setupTestServices.
type testServices struct {
	store     *memory.ConfigStore
	sessions  *fakeSessions
	transport *fakeTransport
	temp      *fakeTempStore
}

// setupTestServices installs fakes for every adapter and restores the
// originals when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	svc := &testServices{
		store: memory.NewConfigStore(map[string]any{
			sharepoint.KeyCompanyURL: testTenant + "/",
			sharepoint.KeyUsername:   "alice@contoso.com",
			sharepoint.KeyPassword:   "secret",
			sharepoint.KeyDataDir:    t.TempDir(),
		}),
		sessions:  &fakeSessions{},
		transport: newFakeTransport(),
		temp:      &fakeTempStore{saved: make(map[string]string)},
	}

	oldStore, oldSessions, oldTransport, oldTemp := configStore, sessionProvider, queryTransport, tempStore
	oldReadPassword := readPassword
	configStore, sessionProvider, queryTransport, tempStore = svc.store, svc.sessions, svc.transport, svc.temp
	readPassword = func(*cobra.Command, string) (string, error) {
		t.Fatal("unexpected password prompt")
		return "", nil
	}
	logger.SetOutput(io.Discard)

	t.Cleanup(func() {
		configStore, sessionProvider, queryTransport, tempStore = oldStore, oldSessions, oldTransport, oldTemp
		readPassword = oldReadPassword
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
		logger.SetQuiet(false)
	})
	return svc
}

// execute runs the root command with args after resetting every flag to
// its default, returning stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

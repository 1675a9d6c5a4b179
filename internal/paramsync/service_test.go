package paramsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusionparams/internal/block"
	"fusionparams/internal/document"
	"fusionparams/internal/export"
	"fusionparams/internal/params"
	"fusionparams/internal/store"
)

// memHost keeps documents in memory.
type memHost struct {
	mu   sync.Mutex
	docs map[string]string
}

func newMemHost(docs map[string]string) *memHost {
	return &memHost{docs: docs}
}

func (h *memHost) DocumentText(_ context.Context, doc string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, ok := h.docs[doc]
	if !ok {
		return "", os.ErrNotExist
	}
	return text, nil
}

func (h *memHost) ReplaceLines(_ context.Context, doc string, start, end int, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, err := document.ReplaceLines(h.docs[doc], start, end, text)
	if err != nil {
		return err
	}
	h.docs[doc] = out
	return nil
}

type recordingNotifier struct {
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) { n.msgs = append(n.msgs, msg) }

type fakeRecorder struct {
	entries []store.Entry
}

func (r *fakeRecorder) Record(_ context.Context, e store.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

const fence = "```"

func fenced(body string) string {
	return fence + document.DefaultLanguage + "\n" + body + fence + "\n"
}

func newTestService(t *testing.T, docs map[string]string) (*Service, *memHost, *export.MemStorage, *recordingNotifier, *fakeRecorder) {
	t.Helper()
	host := newMemHost(docs)
	mem := export.NewMemStorage()
	notes := &recordingNotifier{}
	rec := &fakeRecorder{}
	svc := New(Options{OutputDir: "out", DefaultUnit: "mm"}, host, export.NewWriter(mem, nil, nil),
		WithNotifier(notes), WithRecorder(rec))
	return svc, host, mem, notes, rec
}

func TestRender_WritesRecord(t *testing.T) {
	svc, _, mem, _, ledger := newTestService(t, nil)

	out, err := svc.Render(context.Background(), "part: Bracket\nunits: mm\nparams:\n  w: 10\n  d: 8 mm\n  note: w/2+1")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.True(t, out.JustChanged)
	assert.Equal(t, filepath.Join("out", "Bracket.json"), out.Path)

	data, err := mem.Read(context.Background(), out.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"design":"Bracket","defaultUnit":"mm","parameters":[
		{"name":"w","value":10,"unit":"mm"},
		{"name":"d","value":8,"unit":"mm"},
		{"name":"note","expression":"w/2+1"}]}`, string(data))

	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "Bracket", ledger.entries[0].Design)
	assert.Equal(t, export.Hash(data), ledger.entries[0].Hash)
	assert.Empty(t, ledger.entries[0].Document)
}

func TestRender_MissingPart(t *testing.T) {
	svc, _, mem, notes, ledger := newTestService(t, nil)

	out, err := svc.Render(context.Background(), "units: mm\nparams:\n  a: 1\n")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, block.ErrMissingPart))
	assert.Equal(t, 0, mem.Writes())
	assert.Empty(t, mem.Files())
	assert.Empty(t, ledger.entries)
	require.Len(t, notes.msgs, 1)
	assert.Contains(t, notes.msgs[0], "part")
}

func TestRender_UnchangedNotRewritten(t *testing.T) {
	svc, _, mem, _, ledger := newTestService(t, nil)
	src := "part: P\nparams:\n  a: 1\n"

	first, err := svc.Render(context.Background(), src)
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := svc.Render(context.Background(), "# re-run\n"+src)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.True(t, second.JustChanged, "still inside the recency window")
	assert.Equal(t, 1, mem.Writes())
	assert.Len(t, ledger.entries, 1)
}

func TestRender_WriteFailureReported(t *testing.T) {
	svc, _, mem, notes, _ := newTestService(t, nil)
	mem.FailWrites = errors.New("disk full")

	_, err := svc.Render(context.Background(), "part: P\nparams:\n  a: 1\n")
	require.Error(t, err)
	require.Len(t, notes.msgs, 1)
	assert.Contains(t, notes.msgs[0], "disk full")
}

func TestExportDocument_IsolatesFailures(t *testing.T) {
	doc := "# Parts\n" +
		fenced("part: A\nparams:\n  w: 1\n") +
		"\n" +
		fenced("units: mm\nparams:\n  w: 2\n") +
		"\n" +
		fenced("part: B\nunits: in\nparams:\n  w: 3\n  h: w*2\n")

	svc, _, mem, notes, ledger := newTestService(t, map[string]string{"parts.md": doc})

	report, err := svc.ExportDocument(context.Background(), "parts.md")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Blocks)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].Index)
	assert.True(t, errors.Is(report.Errors[0], block.ErrMissingPart))
	assert.Contains(t, report.Errors[0].Error(), "block 1")

	assert.ElementsMatch(t, []string{filepath.Join("out", "A.json"), filepath.Join("out", "B.json")}, mem.Files())
	assert.Contains(t, notes.msgs[len(notes.msgs)-1], "1 of 3")
	require.Len(t, ledger.entries, 2)
	assert.Equal(t, "parts.md", ledger.entries[0].Document)

	again, err := svc.ExportDocument(context.Background(), "parts.md")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Written)
	assert.Equal(t, 2, again.Unchanged)
}

func TestExportDocument_Unreadable(t *testing.T) {
	svc, _, _, notes, _ := newTestService(t, map[string]string{})
	_, err := svc.ExportDocument(context.Background(), "missing.md")
	require.Error(t, err)
	assert.NotEmpty(t, notes.msgs)
}

func TestExportAll(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, map[string]string{
		"a.md": fenced("part: A\nparams:\n  x: 1\n"),
		"b.md": fenced("part: B\nparams:\n  x: 1\n"),
	})
	reports, failed := svc.ExportAll(context.Background(), []string{"a.md", "nope.md", "b.md"})
	assert.Equal(t, 1, failed)
	require.Len(t, reports, 2)
	assert.Equal(t, "b.md", reports[1].Document)
}

func TestCommit_RewritesOnlyTheBlock(t *testing.T) {
	doc := "intro\n" +
		fenced("part: A\nunits: mm\nparams:\n  w: 1 # width\n  h: w*2\n") +
		"middle\n" +
		fenced("part: B\nparams:\n  x: 5\n") +
		"outro\n"
	svc, host, mem, _, _ := newTestService(t, map[string]string{"d.md": doc})
	ctx := context.Background()

	blocks, err := svc.Blocks(ctx, "d.md")
	require.NoError(t, err)
	base, err := params.ParseRecord(blocks[0].Text, "mm")
	require.NoError(t, err)

	rows := params.SetRaw(params.Rows(base), 0, "w", "12.5")
	rows = append(rows, params.Row{Name: "t", Raw: "0.25 in"})

	out, err := svc.Commit(ctx, "d.md", 0, rows)
	require.NoError(t, err)
	assert.True(t, out.Changed)

	want := "intro\n" +
		fenced("part: A\nunits: mm\nparams:\n  w: 12.5\n  h: w*2\n  t: 0.25 in\n") +
		"middle\n" +
		fenced("part: B\nparams:\n  x: 5\n") +
		"outro\n"
	if diff := cmp.Diff(want, host.docs["d.md"]); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	data, err := mem.Read(ctx, filepath.Join("out", "A.json"))
	require.NoError(t, err)
	rec, err := params.Decode(data)
	require.NoError(t, err)
	assert.Len(t, rec.Parameters, 3)
}

func TestCommit_BlockInsideBlockquote(t *testing.T) {
	doc := "> Spec\n" +
		"> ```fusion-params\n" +
		"> part: Q\n" +
		"> params:\n" +
		">   w: 1\n" +
		"> ```\n" +
		"after\n"
	svc, host, _, _, _ := newTestService(t, map[string]string{"q.md": doc})

	_, err := svc.Edit(context.Background(), "q.md", 0, []params.Row{{Name: "w", Raw: "4"}})
	require.NoError(t, err)

	want := "> Spec\n" +
		"> ```fusion-params\n" +
		"> part: Q\n" +
		"> units: mm\n" +
		"> params:\n" +
		">   w: 4\n" +
		"> ```\n" +
		"after\n"
	assert.Equal(t, want, host.docs["q.md"])

	out, err := svc.ExportDocument(context.Background(), "q.md")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Failed)
}

func TestCommit_BadIndex(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, map[string]string{"d.md": "no blocks\n"})
	_, err := svc.Commit(context.Background(), "d.md", 0, nil)
	assert.True(t, errors.Is(err, ErrBlockNotFound))
}

func TestEdit_UpsertsByName(t *testing.T) {
	doc := fenced("part: A\nparams:\n  w: 1\n  h: 2\n")
	svc, host, _, _, _ := newTestService(t, map[string]string{"d.md": doc})

	_, err := svc.Edit(context.Background(), "d.md", 0, []params.Row{{Name: "h", Raw: "3 in"}, {Name: "n", Raw: "w+h"}})
	require.NoError(t, err)
	assert.Equal(t, fenced("part: A\nunits: mm\nparams:\n  w: 1\n  h: 3 in\n  n: w+h\n"), host.docs["d.md"])
}

func TestFileHost_CommitOnDisk(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "part.md")
	require.NoError(t, os.WriteFile(docPath, []byte("# P\n"+fenced("part: P\nparams:\n  a: 1\n")), 0600))

	outDir := filepath.Join(dir, "json")
	svc := New(Options{OutputDir: outDir, DefaultUnit: "mm"}, FileHost{}, export.NewWriter(export.NewOSStorage(), nil, nil))

	_, err := svc.Commit(context.Background(), docPath, 0, []params.Row{{Name: "a", Raw: "2"}})
	require.NoError(t, err)

	text, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(text), "  a: 2\n"))

	info, err := os.Stat(docPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(outDir, "P.json"))
	assert.NoError(t, err)
}

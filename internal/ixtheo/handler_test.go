package ixtheo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CrispStrobe/citer/internal/record"
)

const searchPage = `<html><body>
<div class="search-stats">Showing 1 - 2 results of 37</div>
<div class="result">
  <input class="hiddenId" type="hidden" value="168411332X">
  <a class="title" href="/Record/168411332X">Alte Kirche: Quellen und Deutungen</a>
  <a href="/Author/Home?author=Weber">Weber, Carl</a>
  <span class="format">Book</span>
  <div>Tübingen 2018</div>
</div>
<div class="result">
  <a class="title" href="/Record/1759492111">Paulus und die Polis</a>
  <a href="/Search/Results?lookfor=Schmidt&amp;type=Author">Schmidt, Anna</a>
  <span class="format">Journal Article</span>
</div>
</body></html>`

const risExport = `TY  - CHAP
TI  - Die frühen Briefe
AU  - Brown, Alice
AU  - Weber, Carl (edt)
AU  - Fischer, Emma (trl)
T2  - Handbuch der Briefforschung
PY  - 2021
PB  - Mohr Siebeck
CY  - Tübingen
SP  - 101
EP  - 120
ER  -
`

const detailPage = `<html><body>
<table class="table-striped">
<tr><th>Published:</th><td>Tübingen : Mohr Siebeck, 2018</td></tr>
<tr><th>ISBN:</th><td>9783161484100 (hbk.)</td></tr>
<tr><th>Format:</th><td>Book</td></tr>
<tr><th>Edition:</th><td>2. Aufl.</td></tr>
</table>
</body></html>`

func newTestHandler(t *testing.T, mux *http.ServeMux) *Handler {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewHandler(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSearch_ParsesResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Search/Results", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lookfor"); got != "alte kirche" {
			t.Errorf("lookfor = %q", got)
		}
		w.Write([]byte(searchPage))
	})
	h := newTestHandler(t, mux)

	total, recs, err := h.Search(context.Background(), "alte kirche", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 37 {
		t.Errorf("total = %d, want 37", total)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	first := recs[0]
	if first.ID != "168411332X" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Title != "Alte Kirche" || first.Subtitle != "Quellen und Deutungen" {
		t.Errorf("title split wrong: %q / %q", first.Title, first.Subtitle)
	}
	if len(first.Authors) != 1 || first.Authors[0].Last != "Weber" {
		t.Errorf("Authors = %+v", first.Authors)
	}
	if first.CiteType != "book" {
		t.Errorf("CiteType = %q, want book", first.CiteType)
	}
	if first.Year != "2018" {
		t.Errorf("Year = %q, want 2018", first.Year)
	}

	second := recs[1]
	if second.ID != "1759492111" {
		t.Errorf("second ID should come from the record link, got %q", second.ID)
	}
	if second.CiteType != "article-journal" {
		t.Errorf("second CiteType = %q", second.CiteType)
	}
}

func TestEnrich_RISExport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Record/168411332X/Export", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("style"); got != "RIS" {
			t.Errorf("style = %q", got)
		}
		w.Write([]byte(risExport))
	})
	h := newTestHandler(t, mux)

	skel := &record.Record{ID: "168411332X", Title: "Die frühen Briefe"}
	rec := h.Enrich(context.Background(), skel)

	if rec.CiteType != "chapter" {
		t.Errorf("CiteType = %q, want chapter", rec.CiteType)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Brown" {
		t.Errorf("Authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 1 || rec.Editors[0] != (record.Name{First: "Carl", Last: "Weber"}) {
		t.Errorf("tagged editor not extracted: %+v", rec.Editors)
	}
	if len(rec.Translators) != 1 || rec.Translators[0].Last != "Fischer" {
		t.Errorf("tagged translator not extracted: %+v", rec.Translators)
	}
	if rec.Series != "Handbuch der Briefforschung" {
		t.Errorf("container = %q", rec.Series)
	}
	if rec.Pages != "101-120" {
		t.Errorf("Pages = %q", rec.Pages)
	}
	if rec.ID != "168411332X" {
		t.Errorf("ID should survive enrichment, got %q", rec.ID)
	}
}

func TestEnrich_FallsBackToDetailPage(t *testing.T) {
	var detailHit bool
	mux := http.NewServeMux()
	mux.HandleFunc("/Record/abc/Export", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "export unavailable", http.StatusInternalServerError)
	})
	mux.HandleFunc("/Record/abc", func(w http.ResponseWriter, r *http.Request) {
		detailHit = true
		w.Write([]byte(detailPage))
	})
	var logged []string
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	h := NewHandler(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithLogf(func(format string, args ...any) {
			logged = append(logged, format)
		}),
	)

	skel := &record.Record{ID: "abc", Title: "Alte Kirche"}
	rec := h.Enrich(context.Background(), skel)

	if !detailHit {
		t.Fatal("detail page was not consulted")
	}
	if len(logged) == 0 {
		t.Error("failed RIS step should be logged")
	}
	if rec.Publisher != "Mohr Siebeck" || rec.Address != "Tübingen" {
		t.Errorf("published statement not split: %q / %q", rec.Address, rec.Publisher)
	}
	if rec.Year != "2018" {
		t.Errorf("Year = %q", rec.Year)
	}
	if rec.ISBN != "9783161484100" {
		t.Errorf("ISBN = %q", rec.ISBN)
	}
	if rec.Edition != "2. Aufl." {
		t.Errorf("Edition = %q", rec.Edition)
	}
	if rec.Title != "Alte Kirche" {
		t.Errorf("existing fields should be kept, Title = %q", rec.Title)
	}
}

func TestEnrich_AllStepsFailReturnsInput(t *testing.T) {
	mux := http.NewServeMux()
	h := newTestHandler(t, mux) // every path 404s

	skel := &record.Record{ID: "gone", Title: "Untraceable"}
	rec := h.Enrich(context.Background(), skel)

	if rec != skel {
		t.Error("input record should be returned unchanged when all steps fail")
	}
}

func TestSearchEnriched_SortsBooksFirst(t *testing.T) {
	page := `<html><body>
<div class="result"><a class="title" href="/Record/art1">An Article</a><span class="format">Journal Article</span></div>
<div class="result"><a class="title" href="/Record/chap1">A Chapter</a><span class="format">Book Chapter</span></div>
<div class="result"><a class="title" href="/Record/book1">A Book</a><span class="format">Book</span></div>
</body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/Results", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})
	h := newTestHandler(t, mux) // exports and detail pages 404, skeletons pass through

	_, recs, err := h.SearchEnriched(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("SearchEnriched() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records", len(recs))
	}
	got := []string{recs[0].CiteType, recs[1].CiteType, recs[2].CiteType}
	want := []string{"book", "chapter", "article-journal"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestStripRoleTag(t *testing.T) {
	tests := []struct {
		in   record.Name
		want record.Name
		role record.Role
	}{
		{record.Name{First: "Carl (edt)", Last: "Weber"}, record.Name{First: "Carl", Last: "Weber"}, record.RoleEditor},
		{record.Name{First: "Emma (trl)", Last: "Fischer"}, record.Name{First: "Emma", Last: "Fischer"}, record.RoleTranslator},
		{record.Name{Last: "Unesco (edt)"}, record.Name{Last: "Unesco"}, record.RoleEditor},
		{record.Name{First: "Alice", Last: "Brown"}, record.Name{First: "Alice", Last: "Brown"}, record.RoleAuthor},
	}
	for _, tt := range tests {
		got, role := stripRoleTag(tt.in)
		if got != tt.want || role != tt.role {
			t.Errorf("stripRoleTag(%+v) = %+v, %v; want %+v, %v", tt.in, got, role, tt.want, tt.role)
		}
	}
}

package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/CrispStrobe/citer/internal/record"
)

// fakeSource is a canned Source for merge tests.
type fakeSource struct {
	name string
	rec  *record.Record
	err  error

	called bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, isbn string) (*record.Record, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func TestResolveISBN_MergePriority(t *testing.T) {
	first := &fakeSource{name: "oclc", rec: &record.Record{
		Title: "Digital history",
		Year:  "2020",
	}}
	second := &fakeSource{name: "citoid", rec: &record.Record{
		Title:     "Digital history: methods and sources",
		Publisher: "Springer VS",
		Year:      "2019",
		Authors:   []record.Name{{First: "Jane", Last: "Doe"}},
	}}
	third := &fakeSource{name: "google", rec: &record.Record{
		Address:  "Wiesbaden",
		Language: "en",
	}}

	r := NewResolver(WithSources(first, second, third))
	rec, err := r.ResolveISBN(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if rec.Title != "Digital history" {
		t.Errorf("title = %q", rec.Title)
	}
	// Year comes from the first source that has one, not the richest.
	if rec.Year != "2020" {
		t.Errorf("year = %q", rec.Year)
	}
	if rec.Publisher != "Springer VS" {
		t.Errorf("publisher = %q", rec.Publisher)
	}
	if rec.Address != "Wiesbaden" {
		t.Errorf("address = %q", rec.Address)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Doe" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if rec.ISBN != "978-3-658-31084-4" {
		t.Errorf("isbn = %q", rec.ISBN)
	}
}

func TestResolveISBN_AuthorsWinOverEditors(t *testing.T) {
	withEditors := &fakeSource{name: "oclc", rec: &record.Record{
		Title:   "Edited volume",
		Editors: []record.Name{{First: "Petra", Last: "Schmidt"}},
	}}
	withAuthors := &fakeSource{name: "citoid", rec: &record.Record{
		Authors: []record.Name{{First: "Jane", Last: "Doe"}},
	}}

	r := NewResolver(WithSources(withEditors, withAuthors))
	rec, err := r.ResolveISBN(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Doe" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 0 {
		t.Errorf("editors = %+v, want none when authors exist", rec.Editors)
	}
}

func TestResolveISBN_EditorsWhenNoAuthors(t *testing.T) {
	src := &fakeSource{name: "oclc", rec: &record.Record{
		Title:   "Edited volume",
		Editors: []record.Name{{First: "Petra", Last: "Schmidt"}},
	}}
	r := NewResolver(WithSources(src))
	rec, err := r.ResolveISBN(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if len(rec.Editors) != 1 || !rec.EditedVolume() {
		t.Errorf("editors = %+v", rec.Editors)
	}
}

func TestResolveISBN_TitleColonSplit(t *testing.T) {
	src := &fakeSource{name: "oclc", rec: &record.Record{
		Title: "Digital history: methods and sources",
	}}
	r := NewResolver(WithSources(src))
	rec, err := r.ResolveISBN(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if rec.Title != "Digital history" || rec.Subtitle != "methods and sources" {
		t.Errorf("title = %q / %q", rec.Title, rec.Subtitle)
	}
}

func TestResolveISBN_AllSourcesQueried(t *testing.T) {
	srcs := []*fakeSource{
		{name: "oclc", err: errors.New("down")},
		{name: "citoid", rec: &record.Record{Title: "T"}},
		{name: "google", err: errors.New("down")},
		{name: "ketabir", rec: &record.Record{Title: "U"}},
	}
	r := NewResolver(WithSources(srcs[0], srcs[1], srcs[2], srcs[3]))
	// Iranian ISBN: all sources still run, priority alone changes.
	if _, err := r.ResolveISBN(context.Background(), "9789640000000"); err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	for _, s := range srcs {
		if !s.called {
			t.Errorf("source %s was not queried", s.name)
		}
	}
}

func TestResolveISBN_IranianReordersForPersian(t *testing.T) {
	latin := &fakeSource{name: "oclc", rec: &record.Record{Title: "Latin title", Publisher: "West"}}
	persian := &fakeSource{name: "ketabir", rec: &record.Record{Title: "تاریخ ایران", Publisher: "امیرکبیر"}}

	r := NewResolver(WithSources(latin, persian), WithLanguage("fa"))
	rec, err := r.ResolveISBN(context.Background(), "9789640000000")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if rec.Title != "تاریخ ایران" {
		t.Errorf("title = %q, want the Ketab.ir title to win", rec.Title)
	}

	// Without the Persian preference, the default order wins.
	r = NewResolver(WithSources(latin, persian))
	rec, err = r.ResolveISBN(context.Background(), "9789640000000")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if rec.Title != "Latin title" {
		t.Errorf("title = %q, want the default priority to win", rec.Title)
	}
}

func TestResolveISBN_NoISBN(t *testing.T) {
	r := NewResolver(WithSources(&fakeSource{name: "oclc"}))
	if _, err := r.ResolveISBN(context.Background(), "not an isbn"); !errors.Is(err, ErrNoISBN) {
		t.Errorf("err = %v, want ErrNoISBN", err)
	}
}

func TestResolveISBN_NoData(t *testing.T) {
	r := NewResolver(WithSources(&fakeSource{name: "oclc", err: errors.New("down")}))
	if _, err := r.ResolveISBN(context.Background(), "9783658310844"); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestResolveISBN_LanguageInference(t *testing.T) {
	src := &fakeSource{name: "oclc", rec: &record.Record{
		Title: "Die deutsche Geschichte im neunzehnten Jahrhundert",
	}}
	r := NewResolver(WithSources(src))
	rec, err := r.ResolveISBN(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("ResolveISBN: %v", err)
	}
	if rec.Language != "de" {
		t.Errorf("language = %q, want de", rec.Language)
	}
}

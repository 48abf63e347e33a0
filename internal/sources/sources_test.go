package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOCLCClient_Lookup(t *testing.T) {
	classify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("isbn") != "9783658310844" {
			t.Errorf("isbn param = %q", r.URL.Query().Get("isbn"))
		}
		fmt.Fprint(w, `<?xml version="1.0"?>
<classify xmlns="http://classify.oclc.org">
  <works>
    <work oclc="1193304948" title="Digital history"/>
  </works>
</classify>`)
	}))
	defer classify.Close()

	item := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/1193304948") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Referer") == "" {
			t.Error("missing referer header")
		}
		fmt.Fprint(w, `{
  "title": "Digital history",
  "generalFormat": "Book",
  "publisher": "Springer VS",
  "publicationPlace": "Wiesbaden",
  "publicationDate": "2020",
  "catalogingLanguage": "eng",
  "isbn13": "9783658310844",
  "contributors": [
    {"firstName": {"text": "Jane"}, "secondName": {"text": "Doe"}, "isPrimary": true},
    {"nonPersonName": {"text": "Historical Society"}}
  ]
}`)
	}))
	defer item.Close()

	c := NewOCLCClient(WithOCLCBaseURL(item.URL, classify.URL))
	rec, err := c.Lookup(context.Background(), "978-3-658-31084-4")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Title != "Digital history" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.OCLC != "1193304948" {
		t.Errorf("oclc = %q", rec.OCLC)
	}
	if len(rec.Authors) != 2 {
		t.Fatalf("authors = %+v", rec.Authors)
	}
	if rec.Authors[0].First != "Jane" || rec.Authors[0].Last != "Doe" {
		t.Errorf("author 0 = %+v", rec.Authors[0])
	}
	if rec.Authors[1].Last != "Historical Society" {
		t.Errorf("author 1 = %+v", rec.Authors[1])
	}
	if rec.Publisher != "Springer VS" || rec.Address != "Wiesbaden" || rec.Year != "2020" {
		t.Errorf("imprint = %q / %q / %q", rec.Publisher, rec.Address, rec.Year)
	}
	if rec.CiteType != "book" {
		t.Errorf("cite type = %q", rec.CiteType)
	}
}

func TestOCLCClient_FiltersUnidentifiedImprint(t *testing.T) {
	item := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "title": "Anonymous work",
  "publisher": "[publisher not identified]",
  "publicationPlace": "[Place of publication not identified]"
}`)
	}))
	defer item.Close()

	c := NewOCLCClient(WithOCLCBaseURL(item.URL, item.URL))
	rec, err := c.ByOCLC(context.Background(), "42")
	if err != nil {
		t.Fatalf("ByOCLC: %v", err)
	}
	if rec.Publisher != "" || rec.Address != "" {
		t.Errorf("placeholder imprint kept: %q / %q", rec.Publisher, rec.Address)
	}
}

func TestCitoidClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{
  "itemType": "book",
  "title": "Digital history: methods and sources",
  "publisher": "Springer VS",
  "place": "Wiesbaden",
  "date": "2020-03-01",
  "ISBN": ["9783658310844"],
  "author": [["Jane", "Doe"]],
  "editor": [["Petra", "Schmidt"]]
}]`)
	}))
	defer srv.Close()

	c := NewCitoidClient(WithCitoidBaseURL(srv.URL))
	rec, err := c.Lookup(context.Background(), "9783658310844")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Title != "Digital history: methods and sources" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Year != "2020" {
		t.Errorf("year = %q", rec.Year)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Doe" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 1 || rec.Editors[0].Last != "Schmidt" {
		t.Errorf("editors = %+v", rec.Editors)
	}
	if rec.ISBN != "9783658310844" {
		t.Errorf("isbn = %q", rec.ISBN)
	}
}

func TestCitoidClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no citation", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCitoidClient(WithCitoidBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "9780000000000")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestGoogleBooksClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "isbn:9783658310844" {
			t.Errorf("q = %q", got)
		}
		fmt.Fprint(w, `{
  "totalItems": 1,
  "items": [{
    "volumeInfo": {
      "title": "Digital history",
      "subtitle": "methods and sources",
      "authors": ["Jane Doe"],
      "publisher": "Springer VS",
      "publishedDate": "2020",
      "pageCount": 312,
      "language": "en",
      "industryIdentifiers": [
        {"type": "ISBN_10", "identifier": "3658310847"},
        {"type": "ISBN_13", "identifier": "9783658310844"}
      ]
    }
  }]
}`)
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(WithGoogleBaseURL(srv.URL))
	rec, err := c.Lookup(context.Background(), "978-3-658-31084-4")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Title != "Digital history" || rec.Subtitle != "methods and sources" {
		t.Errorf("title = %q / %q", rec.Title, rec.Subtitle)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].First != "Jane" || rec.Authors[0].Last != "Doe" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if rec.ISBN != "9783658310844" {
		t.Errorf("isbn = %q", rec.ISBN)
	}
	if rec.Extent != "312 p." {
		t.Errorf("extent = %q", rec.Extent)
	}
}

func TestGoogleBooksClient_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalItems": 0}`)
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(WithGoogleBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "9780000000000")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestKetabirClient_Lookup(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/Search.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="bookview.aspx?bookid=12345">book</a></body></html>`)
	})
	mux.HandleFunc("/bookview.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table>
<tr><td>نام کتاب:</td><td>تاریخ ایران</td></tr>
<tr><td>پديدآورنده:</td><td>حسن زرین‌کوب</td></tr>
<tr><td>ناشر:</td><td>امیرکبیر</td></tr>
<tr><td>محل نشر:</td><td>تهران</td></tr>
<tr><td>سال نشر:</td><td>1385</td></tr>
</table></body></html>`)
	})

	c := NewKetabirClient(WithKetabirBaseURL(srv.URL))
	rec, err := c.Lookup(context.Background(), "964-00-0000-0")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Title != "تاریخ ایران" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Publisher != "امیرکبیر" || rec.Address != "تهران" {
		t.Errorf("imprint = %q / %q", rec.Publisher, rec.Address)
	}
	if rec.Year != "1385" {
		t.Errorf("year = %q", rec.Year)
	}
	if len(rec.Authors) != 1 {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if rec.Language != "fa" {
		t.Errorf("language = %q", rec.Language)
	}
}

func TestKetabirClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no results</body></html>`)
	}))
	defer srv.Close()

	c := NewKetabirClient(WithKetabirBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "964-00-0000-0")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

package schema

import (
	"strings"
	"testing"

	"github.com/CrispStrobe/citer/internal/record"
)

const marcBook = `<?xml version="1.0" encoding="UTF-8"?>
<record xmlns="http://www.loc.gov/MARC21/slim">
  <leader>01234nam a2200301 c 4500</leader>
  <datafield tag="020" ind1=" " ind2=" ">
    <subfield code="a">978-3-658-31084-4</subfield>
  </datafield>
  <datafield tag="100" ind1="1" ind2=" ">
    <subfield code="a">Doe, Jane</subfield>
    <subfield code="e">aut</subfield>
  </datafield>
  <datafield tag="245" ind1="1" ind2="0">
    <subfield code="a">Digital history :</subfield>
    <subfield code="b">methods and sources /</subfield>
  </datafield>
  <datafield tag="250" ind1=" " ind2=" ">
    <subfield code="a">2nd ed.</subfield>
  </datafield>
  <datafield tag="264" ind1=" " ind2="1">
    <subfield code="a">Wiesbaden :</subfield>
    <subfield code="b">Springer VS,</subfield>
    <subfield code="c">[2020]</subfield>
  </datafield>
  <datafield tag="300" ind1=" " ind2=" ">
    <subfield code="a">312 p.</subfield>
  </datafield>
  <datafield tag="490" ind1="0" ind2=" ">
    <subfield code="a">Studies in History</subfield>
  </datafield>
  <datafield tag="650" ind1=" " ind2="0">
    <subfield code="a">Historiography</subfield>
  </datafield>
  <datafield tag="700" ind1="1" ind2=" ">
    <subfield code="a">Schmidt, Petra</subfield>
    <subfield code="e">edt</subfield>
  </datafield>
</record>`

const marcArticle = `<?xml version="1.0" encoding="UTF-8"?>
<record xmlns="http://www.loc.gov/MARC21/slim">
  <leader>01234naa a2200301 c 4500</leader>
  <datafield tag="022" ind1=" " ind2=" ">
    <subfield code="a">1234-567X</subfield>
  </datafield>
  <datafield tag="024" ind1="7" ind2=" ">
    <subfield code="a">10.1000/example.2019.3</subfield>
    <subfield code="2">doi</subfield>
  </datafield>
  <datafield tag="100" ind1="1" ind2=" ">
    <subfield code="a">Miller, Tom</subfield>
  </datafield>
  <datafield tag="245" ind1="1" ind2="0">
    <subfield code="a">Reading the archive</subfield>
  </datafield>
  <datafield tag="773" ind1="0" ind2=" ">
    <subfield code="t">Journal of Historical Methods</subfield>
    <subfield code="g">Vol. 12, no. 3 (2019), p. 45-67</subfield>
  </datafield>
</record>`

const dcRecord = `<?xml version="1.0" encoding="UTF-8"?>
<srw_dc:dc xmlns:srw_dc="info:srw/schema/1/dc-schema" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Open access in theology: a survey</dc:title>
  <dc:creator>Brown, Alice</dc:creator>
  <dc:creator>White, Bob (ed.)</dc:creator>
  <dc:date>2018</dc:date>
  <dc:publisher>Mohr Siebeck</dc:publisher>
  <dc:identifier>ISSN 0044-3262</dc:identifier>
  <dc:identifier>https://example.org/oa-survey</dc:identifier>
  <dc:language>en</dc:language>
  <dc:source>Zeitschrift für Theologie, Band 7, Heft 2, p. 101-120</dc:source>
</srw_dc:dc>`

const rdfRecord = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:dc="http://purl.org/dc/elements/1.1/"
         xmlns:dcterms="http://purl.org/dc/terms/"
         xmlns:bibo="http://purl.org/ontology/bibo/"
         xmlns:rdau="http://rdaregistry.info/Elements/u/"
         xmlns:gndo="https://d-nb.info/standards/elementset/gnd#">
  <rdf:Description rdf:about="https://d-nb.info/1211234567">
    <dc:title>Kirchengeschichte im Überblick</dc:title>
    <dcterms:alternative>Ein Handbuch</dcterms:alternative>
    <dcterms:creator rdf:resource="https://d-nb.info/gnd/118540238"/>
    <rdau:P60327>herausgegeben von Hans Weber und Eva Fischer</rdau:P60327>
    <dcterms:issued>2021</dcterms:issued>
    <rdau:P60333>Tübingen : Mohr Siebeck, 2021</rdau:P60333>
    <bibo:isbn13>9783161593888</bibo:isbn13>
    <dcterms:isPartOf>Handbücher zur Kirchengeschichte ; 3</dcterms:isPartOf>
  </rdf:Description>
  <rdf:Description rdf:about="https://d-nb.info/gnd/118540238">
    <gndo:preferredNameForThePerson>Müller, Christine</gndo:preferredNameForThePerson>
  </rdf:Description>
</rdf:RDF>`

func TestParseMARCXML_Book(t *testing.T) {
	rec, err := ParseMARCXML(RawRecord{ID: "R1", Schema: "marcxml", Payload: marcBook})
	if err != nil {
		t.Fatalf("ParseMARCXML: %v", err)
	}
	if rec.Title != "Digital history" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Subtitle != "methods and sources" {
		t.Errorf("subtitle = %q", rec.Subtitle)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Doe" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 1 || rec.Editors[0].Last != "Schmidt" {
		t.Errorf("editors = %+v", rec.Editors)
	}
	if rec.Year != "2020" {
		t.Errorf("year = %q", rec.Year)
	}
	if rec.Publisher != "Springer VS" || rec.Address != "Wiesbaden" {
		t.Errorf("publisher = %q, address = %q", rec.Publisher, rec.Address)
	}
	if rec.ISBN != "978-3-658-31084-4" {
		t.Errorf("isbn = %q", rec.ISBN)
	}
	if rec.Edition != "2nd ed." {
		t.Errorf("edition = %q", rec.Edition)
	}
	if rec.Series != "Studies in History" {
		t.Errorf("series = %q", rec.Series)
	}
	if rec.Pages != "312" {
		t.Errorf("pages = %q", rec.Pages)
	}
	if rec.DocumentType != "Book" {
		t.Errorf("document type = %q", rec.DocumentType)
	}
	if rec.CiteType != "book" {
		t.Errorf("cite type = %q", rec.CiteType)
	}
}

func TestParseMARCXML_Article(t *testing.T) {
	rec, err := ParseMARCXML(RawRecord{ID: "R2", Schema: "marcxml", Payload: marcArticle})
	if err != nil {
		t.Fatalf("ParseMARCXML: %v", err)
	}
	if rec.Journal != "Journal of Historical Methods" {
		t.Errorf("journal = %q", rec.Journal)
	}
	if rec.Volume != "12" || rec.Issue != "3" {
		t.Errorf("volume = %q, issue = %q", rec.Volume, rec.Issue)
	}
	if rec.Pages != "45-67" {
		t.Errorf("pages = %q", rec.Pages)
	}
	if rec.Year != "2019" {
		t.Errorf("year = %q", rec.Year)
	}
	if rec.DOI != "10.1000/example.2019.3" {
		t.Errorf("doi = %q", rec.DOI)
	}
	if rec.ISSN != "1234-567X" {
		t.Errorf("issn = %q", rec.ISSN)
	}
	if rec.DocumentType != "Journal Article" {
		t.Errorf("document type = %q", rec.DocumentType)
	}
	if rec.CiteType != "article-journal" {
		t.Errorf("cite type = %q", rec.CiteType)
	}
}

func TestParseDublinCore(t *testing.T) {
	rec, err := ParseDublinCore(RawRecord{ID: "R3", Schema: "dc", Payload: dcRecord})
	if err != nil {
		t.Fatalf("ParseDublinCore: %v", err)
	}
	if rec.Title != "Open access in theology" || rec.Subtitle != "a survey" {
		t.Errorf("title = %q, subtitle = %q", rec.Title, rec.Subtitle)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Brown" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 1 || rec.Editors[0].Last != "White" {
		t.Errorf("editors = %+v", rec.Editors)
	}
	if rec.Journal != "Zeitschrift für Theologie" {
		t.Errorf("journal = %q", rec.Journal)
	}
	if rec.Volume != "7" || rec.Issue != "2" {
		t.Errorf("volume = %q, issue = %q", rec.Volume, rec.Issue)
	}
	if rec.Pages != "101-120" {
		t.Errorf("pages = %q", rec.Pages)
	}
	if got := rec.URL(); got != "https://example.org/oa-survey" {
		t.Errorf("url = %q", got)
	}
	if rec.Language != "en" {
		t.Errorf("language = %q", rec.Language)
	}
}

func TestParseRDF(t *testing.T) {
	rec, err := ParseRDF(RawRecord{ID: "R4", Schema: "RDFxml", Payload: rdfRecord})
	if err != nil {
		t.Fatalf("ParseRDF: %v", err)
	}
	if rec.Title != "Kirchengeschichte im Überblick" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Subtitle != "Ein Handbuch" {
		t.Errorf("subtitle = %q", rec.Subtitle)
	}
	if len(rec.Authors) != 1 || rec.Authors[0].Last != "Müller" {
		t.Errorf("authors = %+v", rec.Authors)
	}
	wantEditors := []string{"Weber", "Fischer"}
	if len(rec.Editors) != 2 || rec.Editors[0].Last != wantEditors[0] || rec.Editors[1].Last != wantEditors[1] {
		t.Errorf("editors = %+v", rec.Editors)
	}
	if rec.Year != "2021" {
		t.Errorf("year = %q", rec.Year)
	}
	if rec.Address != "Tübingen" || rec.Publisher != "Mohr Siebeck" {
		t.Errorf("address = %q, publisher = %q", rec.Address, rec.Publisher)
	}
	if rec.ISBN != "9783161593888" {
		t.Errorf("isbn = %q", rec.ISBN)
	}
	if rec.Series == "" {
		t.Errorf("series missing")
	}
}

func TestRegistry_FallbackAndStub(t *testing.T) {
	reg := NewRegistry()

	// Unknown schema with recognizable elements goes through the
	// generic parser.
	rec := reg.Parse(RawRecord{ID: "R5", Schema: "mods", Payload: dcRecord})
	if rec == nil {
		t.Fatal("Parse returned nil")
	}
	if rec.Title != "Open access in theology" {
		t.Errorf("generic title = %q", rec.Title)
	}

	// Garbage yields the minimal stub, never nil.
	rec = reg.Parse(RawRecord{ID: "R6", Schema: "mods", Payload: "not xml at all"})
	if rec == nil {
		t.Fatal("Parse returned nil for garbage")
	}
	if !strings.Contains(rec.Title, "Unparseable Record R6") {
		t.Errorf("stub title = %q", rec.Title)
	}
	if rec.Raw != "not xml at all" {
		t.Errorf("stub raw = %q", rec.Raw)
	}
}

func TestRegistry_Supported(t *testing.T) {
	reg := NewRegistry()
	for _, schema := range []string{"dc", "marcxml", "MARC21-xml", "RDFxml", "dublincore"} {
		if !reg.Supported(schema) {
			t.Errorf("schema %q should be supported", schema)
		}
	}
	if reg.Supported("mods") {
		t.Error("mods should not be supported")
	}
}

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		role record.Role
	}{
		{"Müller, Hans [Hrsg.]", "Müller, Hans", record.RoleEditor},
		{"Smith, Jane (ed.)", "Smith, Jane", record.RoleEditor},
		{"Klein, Maria [Übers.]", "Klein, Maria", record.RoleTranslator},
		{"Doe, Jane", "Doe, Jane", record.RoleAuthor},
		{"Brahe, Tycho [astronomer]", "Brahe, Tycho [astronomer]", record.RoleAuthor},
	}
	for _, tt := range tests {
		name, role := classifyRole(tt.raw)
		if name != tt.name || role != tt.role {
			t.Errorf("classifyRole(%q) = %q, %q; want %q, %q", tt.raw, name, role, tt.name, tt.role)
		}
	}
}

func TestNameCollector_Dedup(t *testing.T) {
	c := newNameCollector()
	c.add("Doe, Jane", record.RoleAuthor)
	c.add("doe,  jane", record.RoleAuthor)
	c.add("Schmidt, Petra", record.RoleEditor)
	var rec record.Record
	c.apply(&rec)
	if len(rec.Authors) != 1 {
		t.Errorf("authors = %+v", rec.Authors)
	}
	if len(rec.Editors) != 1 {
		t.Errorf("editors = %+v", rec.Editors)
	}
}

func TestResolveRole_TextWinsOnlyPositively(t *testing.T) {
	if got := resolveRole(record.RoleEditor, record.RoleAuthor); got != record.RoleEditor {
		t.Errorf("structured editor overridden: %q", got)
	}
	if got := resolveRole(record.RoleAuthor, record.RoleTranslator); got != record.RoleTranslator {
		t.Errorf("text translator ignored: %q", got)
	}
}

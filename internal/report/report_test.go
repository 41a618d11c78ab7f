package report

import (
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/stockrec/pkg/models"
)

func sampleInput() Input {
	msft := &models.StockReference{
		Symbol: "MSFT", Security: "Microsoft", Sector: "Information Technology",
		SubIndustry: "Systems Software", Headquarters: "Redmond, Washington", Founded: "1975",
		RecentChange: 3.1, HasChange: true,
	}
	goog := &models.StockReference{
		Symbol: "GOOG", Security: "Alphabet Inc. (Class C)", Sector: "Communication Services",
		RecentChange: -1.2, HasChange: true,
	}
	return Input{
		Portfolio: models.PortfolioView{
			UserID: "A",
			Holdings: []models.Holding{
				{UserID: "A", Name: "Alice", Symbol: "AAPL", Sector: "Tech", Weight: 60},
				{UserID: "A", Name: "Alice", Symbol: "JNJ", Sector: "Health", Weight: 40},
			},
			Allocation: []models.SectorWeight{{Sector: "Tech", Weight: 60}, {Sector: "Health", Weight: 40}},
			TopSector:  "Tech",
		},
		Sector: &models.RecommendationList{
			UserID: "A", Kind: models.KindSector, TopSector: "Tech", Total: 2,
			Items: []models.EnrichedRecommendation{
				{Recommendation: models.Recommendation{Symbol: "MSFT", Score: 100}, Rank: 1, Stock: msft},
				{Recommendation: models.Recommendation{Symbol: "GOOG", Score: 27.27}, Rank: 2, Stock: goog},
			},
		},
		RiskNote: "User A is not in the risk similarity data.",
		Headlines: map[string][]models.Headline{
			"MSFT": {{Symbol: "MSFT", Title: "Microsoft beats <estimates>", Link: "https://example.com/msft"}},
		},
	}
}

var fixedNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	d := Build(sampleInput(), Config{Now: fixedNow})

	if d.Title != "Stock Recommendations for A" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.UserName != "Alice" {
		t.Errorf("UserName = %q", d.UserName)
	}
	if d.GeneratedAt != "2026-03-02 10:00:00 ET" {
		t.Errorf("GeneratedAt = %q", d.GeneratedAt)
	}
	if len(d.Allocation) != 2 || d.Allocation[0].Share != 60 {
		t.Errorf("Allocation = %+v", d.Allocation)
	}
	if len(d.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(d.Sections))
	}

	sec := d.Sections[0]
	if sec.Subtitle != "Top sector: Tech" || len(sec.Rows) != 2 {
		t.Errorf("sector section = %+v", sec)
	}
	if r := sec.Rows[1]; r.Score != "27.27%" || r.Change != "-1.20%" || r.ChangeClass != "negative" {
		t.Errorf("row = %+v", r)
	}
	if r := sec.Rows[0]; r.Bar != strings.Repeat("#", 20) || len(r.Headlines) != 1 {
		t.Errorf("row = %+v", r)
	}

	risk := d.Sections[1]
	if risk.Note == "" || len(risk.Rows) != 0 {
		t.Errorf("risk section = %+v", risk)
	}
}

func TestBuildEmptyList(t *testing.T) {
	in := Input{Risk: &models.RecommendationList{Kind: models.KindRisk}}
	d := Build(in, Config{Now: fixedNow})
	if len(d.Sections) != 1 || d.Sections[0].Note != "No recommendations available." {
		t.Errorf("sections = %+v", d.Sections)
	}
}

func TestGenerateText(t *testing.T) {
	out, err := GenerateText(sampleInput(), Config{Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Stock Recommendations for A",
		"PORTFOLIO: Alice (A)",
		"SECTOR ALLOCATION",
		"Top sector: Tech",
		"RECOMMENDATIONS BY SECTOR",
		"100.00%",
		"Microsoft",
		"+3.10%",
		"[MSFT] Microsoft beats <estimates>",
		"not in the risk similarity data",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestGenerateTextNoHoldings(t *testing.T) {
	out, err := GenerateText(Input{Portfolio: models.PortfolioView{UserID: "ghost"}, SectorNote: "User ghost has no holdings."}, Config{Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No holdings.") || !strings.Contains(out, "has no holdings") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestGenerateHTML(t *testing.T) {
	out, err := GenerateHTML(sampleInput(), Config{Title: "Custom", Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<title>Custom</title>",
		"Alice",
		"Recommendations by Sector",
		"Top sector: Tech",
		"<strong>MSFT</strong>",
		"Redmond, Washington",
		`class="num negative"`,
		"Microsoft beats &lt;estimates&gt;",
		"https://example.com/msft",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
	if strings.Contains(out, "<estimates>") {
		t.Error("headline text must be escaped")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"html", FormatHTML, false},
		{" json ", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

package capture

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// maxProductTitles bounds how many listing titles we keep per page.
const maxProductTitles = 10

// DefaultSelectors is the prioritized list of structural selectors tried
// against a rendered listing page. The first selector with any match wins.
var DefaultSelectors = []string{
	"article h3",
	"article h2",
	".product-title",
	".product-name",
	"[data-test='product-title']",
	".card__title",
	".item-title",
}

// PageData is what extraction pulls out of one rendered variant.
type PageData struct {
	H1Title       string
	ProductCount  int
	ProductTitles []string
}

// Extract parses rendered HTML and pulls the page heading plus a bounded
// list of product titles using the selector priority list.
func Extract(html string, selectors []string) PageData {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageData{H1Title: "Error extracting"}
	}

	data := PageData{H1Title: "No H1 found"}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		data.H1Title = strings.TrimSpace(h1.Text())
	}

	for _, selector := range selectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		sel.EachWithBreak(func(_ int, el *goquery.Selection) bool {
			data.ProductTitles = append(data.ProductTitles, strings.TrimSpace(el.Text()))
			return len(data.ProductTitles) < maxProductTitles
		})
		break
	}

	data.ProductCount = len(data.ProductTitles)
	return data
}

// selectorsFile is the YAML shape of an external selector configuration.
type selectorsFile struct {
	Selectors []string `yaml:"selectors"`
}

// LoadSelectors reads a selector priority list from a YAML file. An empty
// path returns the built-in defaults.
func LoadSelectors(path string) ([]string, error) {
	if path == "" {
		return DefaultSelectors, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "capture: read selectors file")
	}
	var f selectorsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "capture: parse selectors file")
	}
	if len(f.Selectors) == 0 {
		return nil, eris.New("capture: selectors file lists no selectors")
	}
	return f.Selectors, nil
}

package catalog

import "sort"

// marketLanguages maps each supported market to the locales the catalog
// serves localized text in for that market. The detail crawl only fetches
// the locales of markets that actually returned games.
var marketLanguages = map[string][]string{
	"AR": {"es-ar"},
	"AT": {"de-at", "de-de"},
	"AU": {"en-au"},
	"BE": {"fr-be", "nl-be"},
	"BR": {"pt-br"},
	"CA": {"en-ca", "fr-ca"},
	"CH": {"de-ch", "fr-ch", "it-it"},
	"CL": {"es-cl", "es-mx"},
	"CO": {"es-co", "es-mx"},
	"CZ": {"cs-cz"},
	"DE": {"de-de"},
	"DK": {"da-dk"},
	"ES": {"es-es"},
	"FI": {"fi-fi"},
	"FR": {"fr-fr"},
	"GB": {"en-gb"},
	"GR": {"el-gr"},
	"HK": {"zh-hk", "en-gb"},
	"HU": {"hu-hu"},
	"IE": {"en-ie", "en-gb"},
	"IL": {"he-il"},
	"IN": {"en-in"},
	"IT": {"it-it"},
	"JP": {"ja-jp"},
	"KR": {"ko-kr"},
	"MX": {"es-mx"},
	"NL": {"nl-nl"},
	"NO": {"nb-no"},
	"NZ": {"en-nz", "en-gb"},
	"PL": {"pl-pl"},
	"PT": {"pt-pt"},
	"SA": {"ar-sa"},
	"SE": {"sv-se"},
	"SG": {"en-sg", "zh-sg"},
	"SK": {"sk-sk"},
	"TR": {"tr-tr"},
	"TW": {"zh-tw"},
	"US": {"en-us", "es-mx"},
	"ZA": {"en-za", "en-gb"},
}

// Index answers market and locale lookups for the crawl pipeline. The
// zero value is not usable; construct it with NewIndex.
type Index struct {
	markets   []string
	languages []string
	byMarket  map[string][]string
}

// NewIndex builds the static market/locale index.
func NewIndex() *Index {
	markets := make([]string, 0, len(marketLanguages))
	langSet := make(map[string]struct{})
	for m, langs := range marketLanguages {
		markets = append(markets, m)
		for _, l := range langs {
			langSet[l] = struct{}{}
		}
	}
	sort.Strings(markets)
	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)
	return &Index{
		markets:   markets,
		languages: languages,
		byMarket:  marketLanguages,
	}
}

// Markets returns all supported markets in sorted order.
func (i *Index) Markets() []string {
	return i.markets
}

// AllLanguages returns every supported locale in sorted order.
func (i *Index) AllLanguages() []string {
	return i.languages
}

// Languages returns the locales associated with a market. Unknown
// markets yield nil.
func (i *Index) Languages(market string) []string {
	return i.byMarket[market]
}

// IsMarket reports whether the market code is supported.
func (i *Index) IsMarket(market string) bool {
	_, ok := i.byMarket[market]
	return ok
}

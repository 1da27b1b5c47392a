// Package ingest turns raw source tables from Statistics Canada and the BEA
// into validated panel rows. Raw industry labels are mapped to NAICS codes,
// configured aggregates are dropped to avoid double counting, and fine codes
// are collapsed onto the grouping the decomposition runs at.
package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// Mapping describes how raw source industries translate to panel industries.
type Mapping struct {
	// Industries maps a source industry label to a NAICS code or grouping.
	// Labels not present pass through unchanged (they are assumed to already
	// be codes).
	Industries map[string]string `yaml:"industries"`
	// Drop lists source labels excluded entirely, typically sector aggregates
	// whose components are also present.
	Drop []string `yaml:"drop"`
	// Aggregate collapses fine codes onto coarser groupings after the label
	// mapping, e.g. "441" -> "44-45".
	Aggregate map[string]string `yaml:"aggregate"`
}

// LoadMapping reads a mapping overlay from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read mapping file %s", path)
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse mapping file %s", path)
	}
	return &m, nil
}

// Merge overlays other onto m: other's entries win, drops are unioned.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	if m.Industries == nil {
		m.Industries = map[string]string{}
	}
	for k, v := range other.Industries {
		m.Industries[k] = v
	}
	if m.Aggregate == nil {
		m.Aggregate = map[string]string{}
	}
	for k, v := range other.Aggregate {
		m.Aggregate[k] = v
	}
	seen := make(map[string]bool, len(m.Drop))
	for _, d := range m.Drop {
		seen[d] = true
	}
	for _, d := range other.Drop {
		if !seen[d] {
			m.Drop = append(m.Drop, d)
			seen[d] = true
		}
	}
}

// dropped reports whether the raw label is excluded.
func (m *Mapping) dropped(label string) bool {
	for _, d := range m.Drop {
		if d == label {
			return true
		}
	}
	return false
}

// resolve maps a raw label to its final panel industry.
func (m *Mapping) resolve(label string) panel.Industry {
	code := label
	if mapped, ok := m.Industries[label]; ok {
		code = mapped
	}
	if agg, ok := m.Aggregate[code]; ok {
		code = agg
	}
	return panel.Industry(code)
}

// DefaultMapping returns the built-in mapping set for an economy ("CA" or
// "US").
func DefaultMapping(economy string) (*Mapping, error) {
	switch economy {
	case "CA":
		return canadaMapping(), nil
	case "US":
		return usMapping(), nil
	default:
		return nil, eris.Errorf("ingest: no mapping set for economy %q", economy)
	}
}

// canadaMapping covers Statistics Canada tables 36-10-0217-01 and
// 36-10-0001-01: productivity-table industry names, sector aggregates to
// drop, and the supply-use code grouping.
func canadaMapping() *Mapping {
	return &Mapping{
		Industries: map[string]string{
			"Accommodation and food services [72]":                                       "72",
			"Administrative and support, waste management and remediation services [56]": "56",
			"Arts, entertainment and recreation [71]":                                    "71",
			"Beverage and tobacco product manufacturing [312]":                           "312",
			"Chemical manufacturing [325]":                                               "325",
			"Clothing, Leather and allied product manufacturing":                         "315-316",
			"Computer and electronic product manufacturing [334]":                        "334",
			"Construction [23]":                                                          "23",
			"Crop and animal production":                                                 "111-112",
			"Electrical equipment, appliance and component manufacturing [335]":          "335",
			"Fabricated metal product manufacturing [332]":                               "332",
			"Finance, insurance, real estate and renting and leasing":                    "52-53",
			"Fishing, hunting and trapping [114]":                                        "114",
			"Food manufacturing [311]":                                                   "311",
			"Forestry and logging [113]":                                                 "113",
			"Furniture and related product manufacturing [337]":                          "337",
			"Health care and social assistance (except hospitals)":                       "62",
			"Information and cultural industries [51]":                                   "51",
			"Machinery manufacturing [333]":                                              "333",
			"Mining (except oil and gas) [212]":                                          "212",
			"Miscellaneous manufacturing [339]":                                          "339",
			"Non-metallic mineral product manufacturing [327]":                           "327",
			"Oil and gas extraction [211]":                                               "211",
			"Other services (except public administration) [81]":                         "81",
			"Paper manufacturing [322]":                                                  "322",
			"Petroleum and coal products manufacturing [324]":                            "324",
			"Plastics and rubber products manufacturing [326]":                           "326",
			"Primary metal manufacturing [331]":                                          "331",
			"Printing and related support activities [323]":                              "323",
			"Professional, scientific and technical services [54]":                       "54",
			"Retail trade [44-45]":                                                       "44-45",
			"Support activities for agriculture and forestry [115]":                      "115",
			"Support activities for mining and oil and gas extraction [213]":             "213",
			"Textile and textile product mills":                                          "313-314",
			"Transportation and warehousing [48-49]":                                     "48-49",
			"Transportation equipment manufacturing [336]":                               "336",
			"Utilities [221]":                                                            "221",
			"Wholesale trade [41]":                                                       "41",
			"Wood product manufacturing [321]":                                           "321",
		},
		Drop: []string{
			"Agriculture, forestry, fishing and hunting [11]",
			"Mining and oil and gas extraction [21]",
			"Electric power generation, transmission and distribution [2211]",
			"Natural gas distribution, water and other systems",
			"Manufacturing [31-33]",
			"Air, rail, water and scenic and sightseeing transportation and support activities for transportation",
			"Truck transportation [484]",
			"Transit and ground passenger transportation [485]",
			"Pipeline transportation [486]",
			"Postal service and couriers and messengers",
			"Warehousing and storage [493]",
			"Motion picture and sound recording industries [512]",
			"Broadcasting, telecommunications, publishing industries and other information services",
			"Administrative and support services [561]",
			"Waste management and remediation services [562]",
			"Educational services (except universities)",
			"Repair and maintenance [811]",
			"Religious, grant-making, civic, and professional and similar organizations [813]",
			"Personal and laundry services and private households",
		},
		Aggregate: map[string]string{
			"11A": "111-112",
			"111": "111-112",
			"112": "111-112",
			"23A": "23",
			"23B": "23",
			"23C": "23",
			"23D": "23",
			"23E": "23",
			"31A": "313-314",
			"31B": "315-316",
			"410": "41",
			"411": "41",
			"412": "41",
			"413": "41",
			"414": "41",
			"415": "41",
			"416": "41",
			"417": "41",
			"418": "41",
			"419": "41",
			"4A0": "44-45",
			"441": "44-45",
			"442": "44-45",
			"443": "44-45",
			"444": "44-45",
			"445": "44-45",
			"446": "44-45",
			"447": "44-45",
			"448": "44-45",
			"451": "44-45",
			"452": "44-45",
			"453": "44-45",
			"454": "44-45",
			"48B": "48-49",
			"481": "48-49",
			"482": "48-49",
			"483": "48-49",
			"484": "48-49",
			"485": "48-49",
			"486": "48-49",
			"488": "48-49",
			"48A": "48-49",
			"49A": "48-49",
			"491": "48-49",
			"492": "48-49",
			"493": "48-49",
			"51A": "51",
			"51B": "51",
			"511": "51",
			"512": "51",
			"515": "51",
			"517": "51",
			"518": "51",
			"519": "51",
			"5A0": "52-53",
			"521": "52-53",
			"522": "52-53",
			"524": "52-53",
			"52A": "52-53",
			"52B": "52-53",
			"53A": "52-53",
			"53B": "52-53",
			"531": "52-53",
			"532": "52-53",
			"533": "52-53",
			"541": "54",
			"561": "56",
			"562": "56",
			"620": "62",
			"621": "62",
			"623": "62",
			"624": "62",
			"710": "71",
			"713": "71",
			"71A": "71",
			"720": "72",
			"721": "72",
			"722": "72",
			"81A": "81",
			"811": "81",
			"812": "81",
			"813": "81",
			"814": "81",
		},
	}
}

// usMapping covers the BEA SIC-era value-added tables and the summary-level
// IO code grouping. SIC titles that straddle two NAICS groupings map to the
// dominant one.
func usMapping() *Mapping {
	return &Mapping{
		Industries: map[string]string{
			"Farms": "111-112",
			"Agricultural services, forestry, and fishing": "113-115",
			"Metal mining":                      "212",
			"Coal mining":                       "212",
			"Oil and gas extraction":            "211",
			"Nonmetallic minerals, except fuels": "212",
			"Construction":                      "23",
			"Lumber and wood products":          "321",
			"Furniture and fixtures":            "337",
			"Stone, clay, and glass products":   "327",
			"Primary metal industries":          "331",
			"Fabricated metal products":         "332",
			"Machinery, except electrical":      "333",
			"Electric and electronic equipment": "334-335",
			"Motor vehicles and equipment":      "336",
			"Other transportation equipment":    "336",
			"Instruments and related products":  "334",
			"Miscellaneous manufacturing industries": "339",
			"Food and kindred products":              "311",
			"Tobacco products":                       "312",
			"Textile mill products":                  "313-314",
			"Apparel and other textile products":     "315-316",
			"Paper and allied products":              "322",
			"Printing and publishing":                "323",
			"Chemicals and allied products":          "325",
			"Petroleum and coal products":            "324",
			"Rubber and miscellaneous plastics products": "326",
			"Leather and leather products":               "315-316",
			"Railroad transportation":                    "48-49",
			"Local and interurban passenger transit":     "48-49",
			"Trucking and warehousing":                   "48-49",
			"Water transportation":                       "48-49",
			"Transportation by air":                      "48-49",
			"Pipelines, except natural gas":              "48-49",
			"Transportation services":                    "48-49",
			"Communications":                             "51",
			"Telephone and telegraph":                    "51",
			"Radio and television":                       "51",
			"Electric, gas, and sanitary services":       "221",
			"Wholesale trade":                            "41",
			"Retail trade":                               "44-45",
			"Banking":                                    "52-53",
			"Credit agencies other than banks":           "52-53",
			"Security and commodity brokers":             "52-53",
			"Insurance carriers":                         "52-53",
			"Insurance agents, brokers, and service":     "52-53",
			"Real estate /2/":                            "52-53",
			"Holding and other investment offices":       "52-53",
			"Hotels and other lodging places":            "72",
			"Personal services":                          "81",
			"Business services":                          "54",
			"Auto repair, services, and parking":         "81",
			"Miscellaneous repair services":              "81",
			"Motion pictures":                            "71",
			"Amusement and recreation services":          "71",
			"Health services":                            "62",
			"Legal services":                             "54",
			"Social services":                            "62",
			"Membership organizations":                   "81",
			"Miscellaneous professional services":        "54",
			"Private households":                         "81",
		},
		Aggregate: map[string]string{
			"111CA":  "111-112",
			"113FF":  "113-115",
			"22":     "221",
			"3361MV": "336",
			"3364OT": "336",
			"311FT":  "311-312",
			"313TT":  "313-314",
			"315AL":  "315-316",
			"42":     "41",
			"44RT":   "44-45",
			"481":    "48-49",
			"482":    "48-49",
			"483":    "48-49",
			"484":    "48-49",
			"485":    "48-49",
			"486":    "48-49",
			"487OS":  "48-49",
			"493":    "48-49",
			"511":    "51",
			"512":    "51",
			"513":    "51",
			"514":    "51",
			"521CI":  "52-53",
			"523":    "52-53",
			"524":    "52-53",
			"525":    "52-53",
			"531":    "52-53",
			"532RL":  "52-53",
			"5411":   "54",
			"5415":   "54",
			"5412OP": "54",
			"711AS":  "71",
			"713":    "71",
			"721":    "72",
			"722":    "72",
		},
		Drop: []string{
			"622HO",
			"GFG",
			"GFE",
			"GSLG",
			"GSLE",
			"Used",
			"Other",
			"T005",
			"T006",
			"T008",
		},
	}
}

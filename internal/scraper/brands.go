package scraper

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"sjsage522/carsales/helpers"

	"gopkg.in/yaml.v3"
)

// footnoteMarkers matches trailing footnote marks such as "*", "(1)" or "²"
var footnoteMarkers = regexp.MustCompile(`(\s*(\*+|\(\d+\)|[¹²³⁴⁵⁶⁷⁸⁹]+))+$`)

// BrandMap translates source labels into canonical brand identifiers
type BrandMap struct {
	normalize   func(string) string
	passthrough bool
	entries     map[string]string
}

// NewBrandMap creates a brand map. With passthrough set, unknown labels translate to themselves.
func NewBrandMap(normalize func(string) string, passthrough bool, entries map[string]string) *BrandMap {
	if normalize == nil {
		normalize = helpers.CleanText
	}
	m := &BrandMap{
		normalize:   normalize,
		passthrough: passthrough,
		entries:     make(map[string]string, len(entries)),
	}
	m.Extend(entries)
	return m
}

// Extend adds or replaces translations
func (m *BrandMap) Extend(entries map[string]string) {
	for label, brand := range entries {
		m.entries[m.normalize(label)] = strings.TrimSpace(brand)
	}
}

// Translate returns the canonical brand of a source label
func (m *BrandMap) Translate(label string) (string, bool) {
	key := m.normalize(label)
	if key == "" {
		return "", false
	}
	if brand, ok := m.entries[key]; ok {
		return brand, true
	}
	if m.passthrough {
		return helpers.CleanText(label), true
	}
	return "", false
}

// Len returns the number of explicit translations
func (m *BrandMap) Len() int {
	return len(m.entries)
}

// NormalizeEuropeLabel lower-cases an ACEA label and strips footnote markers
func NormalizeEuropeLabel(label string) string {
	label = helpers.CleanText(label)
	label = footnoteMarkers.ReplaceAllString(label, "")
	return strings.ToLower(strings.TrimSpace(label))
}

// ChinaBrands returns the Chinese brand name translations
func ChinaBrands() *BrandMap {
	return NewBrandMap(nil, false, map[string]string{
		"比亚迪":    "BYD",
		"大众":     "Volkswagen",
		"吉利":     "Geely",
		"丰田":     "Toyota",
		"奇瑞":     "Chery",
		"长安":     "Changan",
		"本田":     "Honda",
		"特斯拉":    "Tesla",
		"奥迪":     "Audi",
		"五菱":     "Wuling",
		"五菱（银标）": "Wuling (Silver)",
		"捷途":     "Jetour",
		"奔驰":     "Benz",
		"哈弗":     "Haval",
		"MG":     "MG",
		"宝马":     "BMW",
		"银河":     "GALAXY",
		"日产":     "Nissan",
		"红旗":     "Hongqi",
		"零跑":     "Leapmotor",
		"理想":     "LI",
		"别克":     "Buick",
		"小鹏":     "XPENG",
		"传祺":     "GAC Trumpchi",
		"小米":     "XIAOMI",
		"领克":     "Lynk & CO",
		"埃安":     "Aion",
		"起亚":     "Kia",
		"荣威":     "Roewe",
		"坦克":     "TANK",
		"现代":     "Hyundai",
	})
}

// EuropeBrands returns the ACEA manufacturer label translations
func EuropeBrands() *BrandMap {
	return NewBrandMap(NormalizeEuropeLabel, false, map[string]string{
		"Volkswagen Group":        "Volkswagen Group",
		"Volkswagen":              "Volkswagen",
		"Skoda":                   "Skoda",
		"Audi":                    "Audi",
		"Cupra":                   "Cupra",
		"Seat":                    "Seat",
		"Porsche":                 "Porsche",
		"Stellantis":              "Stellantis",
		"Peugeot":                 "Peugeot",
		"Opel/Vauxhall":           "Opel",
		"Fiat":                    "Fiat",
		"Citroen":                 "Citroen",
		"Jeep":                    "Jeep",
		"Alfa Romeo":              "Alfa Romeo",
		"Lancia/Chrysler":         "Lancia",
		"DS":                      "DS",
		"Renault Group":           "Renault Group",
		"Renault":                 "Renault",
		"Dacia":                   "Dacia",
		"Alpine":                  "Alpine",
		"Hyundai Group":           "Hyundai Group",
		"Hyundai":                 "Hyundai",
		"Kia":                     "Kia",
		"Toyota Group":            "Toyota Group",
		"Toyota":                  "Toyota",
		"Lexus":                   "Lexus",
		"BMW Group":               "BMW Group",
		"BMW":                     "BMW",
		"Mini":                    "Mini",
		"Mercedes-Benz":           "Mercedes-Benz Group",
		"Mercedes":                "Benz",
		"Smart":                   "Smart",
		"Ford":                    "Ford",
		"Volvo Cars":              "Volvo",
		"SAIC Motor":              "SAIC Motor",
		"MG":                      "MG",
		"Nissan":                  "Nissan",
		"Tesla":                   "Tesla",
		"BYD":                     "BYD",
		"Mazda":                   "Mazda",
		"Suzuki":                  "Suzuki",
		"Honda":                   "Honda",
		"Mitsubishi":              "Mitsubishi",
		"Jaguar Land Rover Group": "JLR",
		"Land Rover":              "Land Rover",
		"Jaguar":                  "Jaguar",
		"Polestar":                "Polestar",
	})
}

// USBrands returns the US brand map; GoodCarBadCar labels are used as they are
func USBrands() *BrandMap {
	return NewBrandMap(nil, true, nil)
}

// LoadBrandOverrides reads per-region translations from a YAML file such as
//
//	china:
//	  极氪: ZEEKR
//	europe:
//	  Lynk & Co: Lynk & CO
func LoadBrandOverrides(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand map %s: %w", path, err)
	}

	var overrides map[string]map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse brand map %s: %w", path, err)
	}

	normalized := make(map[string]map[string]string, len(overrides))
	for region, entries := range overrides {
		normalized[strings.ToLower(strings.TrimSpace(region))] = entries
	}
	return normalized, nil
}

// BrandsFor returns the built-in brand map of region extended with overrides
func BrandsFor(region string, overrides map[string]map[string]string) (*BrandMap, error) {
	var m *BrandMap
	switch region {
	case RegionChina:
		m = ChinaBrands()
	case RegionUS:
		m = USBrands()
	case RegionEurope:
		m = EuropeBrands()
	default:
		return nil, fmt.Errorf("unknown region %q", region)
	}
	if entries, ok := overrides[region]; ok {
		m.Extend(entries)
	}
	return m, nil
}

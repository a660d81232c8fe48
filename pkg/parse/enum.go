package parse

import "strings"

// sexVocabulary maps source spellings (including the Portuguese and Spanish
// codes several feeds use) onto the canonical values.
var sexVocabulary = map[string]string{
	"male":      "Male",
	"m":         "Male",
	"masculino": "Male",
	"female":    "Female",
	"f":         "Female",
	"feminino":  "Female",
	"femenino":  "Female",
	"other":     "Other",
}

// Sex matches a raw value against the closed sex vocabulary.
func Sex(raw string) (string, error) {
	if absent(raw) {
		return "", nil
	}
	if canonical, ok := sexVocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical, nil
	}
	return "", newError(raw, "not a recognized sex value")
}

var geoResolutions = map[string]string{
	"country": "Country",
	"admin1":  "Admin1",
	"admin2":  "Admin2",
	"admin3":  "Admin3",
	"point":   "Point",
}

// GeoResolution matches a raw value against the closed geo-resolution
// vocabulary.
func GeoResolution(raw string) (string, error) {
	if absent(raw) {
		return "", nil
	}
	if canonical, ok := geoResolutions[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical, nil
	}
	return "", newError(raw, "not a recognized geo resolution")
}

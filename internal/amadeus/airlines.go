package amadeus

var airlineNames = map[string]string{
	"6E": "IndiGo",
	"AI": "Air India",
	"IX": "Air India Express",
	"UK": "Vistara",
	"SG": "SpiceJet",
	"QP": "Akasa Air",
	"G8": "Go First",
	"EK": "Emirates",
	"EY": "Etihad Airways",
	"QR": "Qatar Airways",
	"SQ": "Singapore Airlines",
	"TG": "Thai Airways",
	"BA": "British Airways",
	"LH": "Lufthansa",
}

// AirlineName maps an IATA carrier code to a display name, falling back to
// the code itself.
func AirlineName(code string) string {
	if name, ok := airlineNames[code]; ok {
		return name
	}
	return code
}

package astronomy

// Star is a catalog entry. RA and Dec are J2000 degrees.
type Star struct {
	Name      string  `json:"name"`
	RA        float64 `json:"ra"`
	Dec       float64 `json:"dec"`
	Magnitude float64 `json:"magnitude"`
	Color     string  `json:"color"`
}

// BrightStars are the twenty brightest stars.
var BrightStars = []Star{
	{Name: "Sirius", RA: 101.287, Dec: -16.716, Magnitude: -1.46, Color: "white"},
	{Name: "Canopus", RA: 95.988, Dec: -52.696, Magnitude: -0.74, Color: "white"},
	{Name: "Arcturus", RA: 213.915, Dec: 19.182, Magnitude: -0.05, Color: "orange"},
	{Name: "Vega", RA: 279.234, Dec: 38.784, Magnitude: 0.03, Color: "white"},
	{Name: "Capella", RA: 79.172, Dec: 45.998, Magnitude: 0.08, Color: "yellow"},
	{Name: "Rigel", RA: 78.634, Dec: -8.202, Magnitude: 0.13, Color: "blue"},
	{Name: "Procyon", RA: 114.825, Dec: 5.225, Magnitude: 0.34, Color: "white"},
	{Name: "Betelgeuse", RA: 88.793, Dec: 7.407, Magnitude: 0.50, Color: "red"},
	{Name: "Achernar", RA: 24.429, Dec: -57.237, Magnitude: 0.46, Color: "blue"},
	{Name: "Hadar", RA: 210.956, Dec: -60.373, Magnitude: 0.61, Color: "blue"},
	{Name: "Altair", RA: 297.696, Dec: 8.868, Magnitude: 0.77, Color: "white"},
	{Name: "Aldebaran", RA: 68.980, Dec: 16.509, Magnitude: 0.85, Color: "orange"},
	{Name: "Antares", RA: 247.352, Dec: -26.432, Magnitude: 1.09, Color: "red"},
	{Name: "Spica", RA: 201.298, Dec: -11.161, Magnitude: 1.04, Color: "blue"},
	{Name: "Pollux", RA: 116.329, Dec: 28.026, Magnitude: 1.14, Color: "orange"},
	{Name: "Fomalhaut", RA: 344.413, Dec: -29.622, Magnitude: 1.16, Color: "white"},
	{Name: "Deneb", RA: 310.358, Dec: 45.280, Magnitude: 1.25, Color: "white"},
	{Name: "Regulus", RA: 152.093, Dec: 11.967, Magnitude: 1.35, Color: "blue"},
	{Name: "Adhara", RA: 104.656, Dec: -28.972, Magnitude: 1.50, Color: "blue"},
	{Name: "Castor", RA: 113.650, Dec: 31.888, Magnitude: 1.57, Color: "white"},
}

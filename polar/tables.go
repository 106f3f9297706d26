package polar

// Tabulated polars. Rows are true wind angle, columns are true wind speed.
var twsValues = []float64{6, 10, 15, 20, 25, 30, 35}
var twaValues = []float64{0, 30, 45, 52, 60, 75, 90, 110, 135, 150, 180}

var tables = map[Class][][]float64{
	Sailboat: {
		{0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0},
		{3.2, 5.5, 7.5, 8.5, 8.8, 9.0, 9.0},
		{3.8, 6.2, 8.2, 9.2, 9.5, 9.8, 9.5},
		{4.1, 6.8, 9.0, 10.0, 10.2, 10.5, 10.0},
		{4.3, 7.2, 9.5, 10.5, 10.8, 11.0, 10.5},
		{4.7, 7.8, 10.2, 11.0, 11.2, 11.5, 11.0},
		{4.5, 7.5, 9.8, 10.5, 10.8, 11.0, 10.5},
		{4.0, 6.8, 9.0, 9.5, 10.0, 10.2, 10.0},
		{3.5, 6.0, 8.0, 8.5, 9.0, 9.2, 9.0},
	},
	Catamaran: {
		{0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0},
		{4.0, 7.0, 10.0, 12.0, 13.5, 14.0, 14.0},
		{4.8, 8.0, 11.5, 14.0, 15.5, 16.0, 16.0},
		{5.5, 9.0, 13.0, 16.0, 17.5, 18.0, 18.0},
		{6.0, 10.0, 14.5, 18.0, 19.5, 20.0, 20.0},
		{6.5, 11.0, 16.0, 20.0, 21.5, 22.0, 21.5},
		{6.2, 10.5, 15.5, 19.0, 20.5, 21.0, 20.5},
		{5.5, 9.5, 14.0, 17.0, 18.5, 19.0, 19.0},
		{5.0, 8.5, 12.5, 15.0, 16.5, 17.0, 17.0},
	},
	Motorboat: {
		{18.0, 17.5, 17.0, 16.0, 15.0, 14.0, 12.0},
		{18.0, 17.5, 17.0, 16.0, 15.0, 14.0, 12.0},
		{18.0, 18.0, 17.5, 16.5, 15.5, 14.5, 13.0},
		{18.0, 18.0, 17.5, 17.0, 16.0, 15.0, 14.0},
		{18.0, 18.0, 18.0, 17.5, 17.0, 16.0, 15.0},
		{18.0, 18.5, 18.5, 18.0, 17.5, 17.0, 16.0},
		{18.0, 18.5, 18.5, 18.5, 18.0, 17.5, 17.0},
		{18.0, 19.0, 19.0, 19.0, 19.0, 18.5, 18.0},
		{18.0, 19.0, 19.0, 19.5, 19.5, 19.0, 18.5},
		{18.0, 19.0, 19.5, 20.0, 20.0, 19.5, 19.0},
		{18.0, 19.5, 20.0, 20.5, 21.0, 20.5, 20.0},
	},
}

package vin

// Transliteration values for the ISO 3779 check digit computation.
// Letters I, O and Q are not part of the VIN alphabet and are absent.
var transliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
}

// Position weights for the weighted sum, positions 1 through 17.
var checkDigitWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// Model-year codes for position 10. The table cycles every 30 years; the
// base cycle below starts at 1980. Letters I, O, Q, U, Z and digit 0 are
// never used as year codes.
var yearCodes = map[byte]int{
	'A': 1980, 'B': 1981, 'C': 1982, 'D': 1983, 'E': 1984, 'F': 1985,
	'G': 1986, 'H': 1987, 'J': 1988, 'K': 1989, 'L': 1990, 'M': 1991,
	'N': 1992, 'P': 1993, 'R': 1994, 'S': 1995, 'T': 1996, 'V': 1997,
	'W': 1998, 'X': 1999, 'Y': 2000,
	'1': 2001, '2': 2002, '3': 2003, '4': 2004, '5': 2005, '6': 2006,
	'7': 2007, '8': 2008, '9': 2009,
}

// Manufacturing region by the first VIN character.
var regionNames = map[byte]string{
	'A': "South Africa",
	'B': "Angola",
	'C': "Benin",
	'D': "Egypt",
	'E': "Ethiopia",
	'F': "Ghana",
	'G': "Ivory Coast",
	'H': "Kenya",
	'J': "Japan",
	'K': "South Korea",
	'L': "China",
	'M': "India",
	'N': "Turkey",
	'P': "Philippines",
	'R': "Taiwan",
	'S': "United Kingdom",
	'T': "Switzerland",
	'U': "Romania",
	'V': "France",
	'W': "Germany",
	'X': "Russia",
	'Y': "Sweden",
	'Z': "Italy",
	'1': "United States",
	'2': "Canada",
	'3': "Mexico",
	'4': "United States",
	'5': "United States",
	'6': "Australia",
	'7': "New Zealand",
	'8': "Argentina",
	'9': "Brazil",
}

// Manufacturer lookup by WMI. Three-character entries take precedence over
// the two-character fallbacks during structural decoding.
var manufacturersByWMI = map[string]string{
	// Honda
	"1HG": "Honda", "2HG": "Honda", "1HF": "Honda", "JHM": "Honda", "JH2": "Honda",
	"5FN": "Honda", "5J6": "Honda", "19X": "Honda",
	"19U": "Acura", "JH4": "Acura", "5J8": "Acura",
	// Ford
	"1FA": "Ford", "1FB": "Ford", "1FC": "Ford", "1FD": "Ford", "1FM": "Ford",
	"1FT": "Ford", "2FA": "Ford", "2FM": "Ford", "2FT": "Ford", "3FA": "Ford", "3FE": "Ford",
	"1LN": "Lincoln", "5LM": "Lincoln",
	// General Motors
	"1G1": "Chevrolet", "1GC": "Chevrolet", "1GB": "Chevrolet", "2G1": "Chevrolet",
	"3G1": "Chevrolet", "KL4": "Chevrolet", "KL7": "Chevrolet", "1GN": "Chevrolet",
	"1G6": "Cadillac", "1GY": "Cadillac",
	"1GT": "GMC", "1GK": "GMC", "3GT": "GMC",
	"1G4": "Buick", "5GA": "Buick",
	// Chrysler group
	"1C3": "Chrysler", "1C4": "Chrysler", "2C3": "Chrysler", "2C4": "Chrysler", "3C4": "Chrysler",
	"1C6": "Ram", "3C6": "Ram",
	"1J4": "Jeep", "1J8": "Jeep",
	"2B3": "Dodge", "1B3": "Dodge", "3D7": "Dodge",
	// Toyota
	"JT2": "Toyota", "JT3": "Toyota", "JT4": "Toyota", "JTD": "Toyota", "JTE": "Toyota",
	"JTN": "Toyota", "4T1": "Toyota", "4T3": "Toyota", "5TD": "Toyota", "5TF": "Toyota",
	"2T1": "Toyota", "3TM": "Toyota",
	"JTH": "Lexus", "JTJ": "Lexus", "2T2": "Lexus",
	// Nissan
	"JN1": "Nissan", "JN8": "Nissan", "1N4": "Nissan", "1N6": "Nissan", "3N1": "Nissan", "5N1": "Nissan",
	"JNK": "Infiniti", "JNR": "Infiniti", "5N3": "Infiniti",
	// Mazda, Subaru, Mitsubishi, Suzuki
	"JM1": "Mazda", "JM3": "Mazda", "4F2": "Mazda", "3MZ": "Mazda",
	"JF1": "Subaru", "JF2": "Subaru", "4S3": "Subaru", "4S4": "Subaru",
	"JA3": "Mitsubishi", "JA4": "Mitsubishi", "4A3": "Mitsubishi",
	"JS1": "Suzuki", "JS2": "Suzuki", "JS3": "Suzuki",
	// Korea
	"KMH": "Hyundai", "KM8": "Hyundai", "5NP": "Hyundai", "5NM": "Hyundai",
	"KNA": "Kia", "KND": "Kia", "KNM": "Kia", "5XY": "Kia", "5XX": "Kia", "3KP": "Kia",
	"KMT": "Genesis", "KMU": "Genesis",
	// Germany
	"WBA": "BMW", "WBS": "BMW", "WBY": "BMW", "4US": "BMW", "5UX": "BMW", "5YM": "BMW",
	"WDB": "Mercedes-Benz", "WDC": "Mercedes-Benz", "WDD": "Mercedes-Benz",
	"W1K": "Mercedes-Benz", "W1N": "Mercedes-Benz", "4JG": "Mercedes-Benz",
	"WVW": "Volkswagen", "WV1": "Volkswagen", "WV2": "Volkswagen", "1VW": "Volkswagen", "3VW": "Volkswagen",
	"WAU": "Audi", "WA1": "Audi", "TRU": "Audi",
	"WP0": "Porsche", "WP1": "Porsche",
	"WMW": "Mini", "WME": "Smart",
	// Tesla, Rivian, Lucid
	"5YJ": "Tesla", "7SA": "Tesla", "7G2": "Tesla", "LRW": "Tesla",
	"7FC": "Rivian", "7PD": "Rivian",
	"50E": "Lucid",
	// Europe, other
	"YV1": "Volvo", "YV4": "Volvo", "7JR": "Volvo",
	"SAJ": "Jaguar", "SAL": "Land Rover", "SAD": "Jaguar",
	"SCC": "Lotus", "SCF": "Aston Martin", "SCB": "Bentley",
	"SHH": "Honda", "SHS": "Honda",
	"VF1": "Renault", "VF3": "Peugeot", "VF7": "Citroen",
	"ZFA": "Fiat", "ZFF": "Ferrari", "ZAR": "Alfa Romeo", "ZAM": "Maserati", "ZHW": "Lamborghini",
	"3CZ": "Honda", "93H": "Honda", "9BW": "Volkswagen", "9BG": "Chevrolet",
}

// Two-character fallbacks used when no three-character WMI entry matches.
var manufacturersByPrefix = map[string]string{
	"1F": "Ford", "2F": "Ford", "3F": "Ford",
	"1G": "General Motors", "2G": "General Motors", "3G": "General Motors",
	"1C": "Chrysler", "2C": "Chrysler", "3C": "Chrysler",
	"1H": "Honda", "2H": "Honda",
	"1N": "Nissan", "3N": "Nissan",
	"JH": "Honda", "JT": "Toyota", "JN": "Nissan", "JM": "Mazda", "JF": "Subaru",
	"JA": "Mitsubishi", "JS": "Suzuki",
	"KM": "Hyundai", "KN": "Kia",
	"WB": "BMW", "WD": "Mercedes-Benz", "WV": "Volkswagen", "WA": "Audi", "WP": "Porsche",
	"YV": "Volvo", "SA": "Jaguar Land Rover",
}

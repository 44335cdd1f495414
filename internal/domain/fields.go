package domain

import "math"

// Field identifies one numeric weather field of an EPW data row.
type Field int

// Numeric fields in EPW column order.
const (
	DryBulbTemperature Field = iota
	DewPointTemperature
	RelativeHumidity
	AtmosphericStationPressure
	ExtraterrestrialHorizontalRadiation
	ExtraterrestrialDirectNormalRadiation
	HorizontalInfraredRadiationIntensity
	GlobalHorizontalRadiation
	DirectNormalRadiation
	DiffuseHorizontalRadiation
	GlobalHorizontalIlluminance
	DirectNormalIlluminance
	DiffuseHorizontalIlluminance
	ZenithLuminance
	WindDirection
	WindSpeed
	TotalSkyCover
	OpaqueSkyCover
	Visibility
	CeilingHeight
	PresentWeatherObservation
	PrecipitableWater
	AerosolOpticalDepth
	SnowDepth
	DaysSinceLastSnowfall
	Albedo
	LiquidPrecipitationDepth
	LiquidPrecipitationQuantity

	NumFields int = iota
)

// Positions of the non-numeric columns in a data row.
const (
	colYear                = 0
	colMonth               = 1
	colDay                 = 2
	colHour                = 3
	colMinute              = 4
	colFlags               = 5
	colPresentWeatherCodes = 27

	// RowFields is the fixed number of comma-separated fields per data row.
	RowFields = 35
)

// FieldSpec documents how one numeric field is stored in an EPW row.
type FieldSpec struct {
	Name    string
	Column  int
	Unit    string
	Missing float64 // values >= Missing are the missing marker; NaN when the field has none
	Min     float64
	Max     float64
	Integer bool
}

var unbounded = math.Inf(1)

var fieldSpecs = [NumFields]FieldSpec{
	DryBulbTemperature:                    {Name: "dry_bulb_temperature", Column: 6, Unit: "C", Missing: 99.9, Min: -70, Max: 70},
	DewPointTemperature:                   {Name: "dew_point_temperature", Column: 7, Unit: "C", Missing: 99.9, Min: -70, Max: 70},
	RelativeHumidity:                      {Name: "relative_humidity", Column: 8, Unit: "%", Missing: 999, Min: 0, Max: 110},
	AtmosphericStationPressure:            {Name: "atmospheric_station_pressure", Column: 9, Unit: "Pa", Missing: 999999, Min: 31000, Max: 120000},
	ExtraterrestrialHorizontalRadiation:   {Name: "extraterrestrial_horizontal_radiation", Column: 10, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	ExtraterrestrialDirectNormalRadiation: {Name: "extraterrestrial_direct_normal_radiation", Column: 11, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	HorizontalInfraredRadiationIntensity:  {Name: "horizontal_infrared_radiation_intensity", Column: 12, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	GlobalHorizontalRadiation:             {Name: "global_horizontal_radiation", Column: 13, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	DirectNormalRadiation:                 {Name: "direct_normal_radiation", Column: 14, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	DiffuseHorizontalRadiation:            {Name: "diffuse_horizontal_radiation", Column: 15, Unit: "Wh/m2", Missing: 9999, Max: unbounded},
	GlobalHorizontalIlluminance:           {Name: "global_horizontal_illuminance", Column: 16, Unit: "lux", Missing: 999999, Max: unbounded},
	DirectNormalIlluminance:               {Name: "direct_normal_illuminance", Column: 17, Unit: "lux", Missing: 999999, Max: unbounded},
	DiffuseHorizontalIlluminance:          {Name: "diffuse_horizontal_illuminance", Column: 18, Unit: "lux", Missing: 999999, Max: unbounded},
	ZenithLuminance:                       {Name: "zenith_luminance", Column: 19, Unit: "Cd/m2", Missing: 9999, Max: unbounded},
	WindDirection:                         {Name: "wind_direction", Column: 20, Unit: "deg", Missing: 999, Min: 0, Max: 360},
	WindSpeed:                             {Name: "wind_speed", Column: 21, Unit: "m/s", Missing: 999, Min: 0, Max: 40},
	TotalSkyCover:                         {Name: "total_sky_cover", Column: 22, Unit: "tenths", Missing: 99, Min: 0, Max: 10},
	OpaqueSkyCover:                        {Name: "opaque_sky_cover", Column: 23, Unit: "tenths", Missing: 99, Min: 0, Max: 10},
	Visibility:                            {Name: "visibility", Column: 24, Unit: "km", Missing: 9999, Max: unbounded},
	CeilingHeight:                         {Name: "ceiling_height", Column: 25, Unit: "m", Missing: 99999, Max: unbounded},
	PresentWeatherObservation:             {Name: "present_weather_observation", Column: 26, Missing: math.NaN(), Min: 0, Max: 9, Integer: true},
	PrecipitableWater:                     {Name: "precipitable_water", Column: 28, Unit: "mm", Missing: 999, Max: unbounded},
	AerosolOpticalDepth:                   {Name: "aerosol_optical_depth", Column: 29, Unit: "thousandths", Missing: 0.999, Max: unbounded},
	SnowDepth:                             {Name: "snow_depth", Column: 30, Unit: "cm", Missing: 999, Max: unbounded},
	DaysSinceLastSnowfall:                 {Name: "days_since_last_snowfall", Column: 31, Unit: "days", Missing: 99, Max: unbounded, Integer: true},
	Albedo:                                {Name: "albedo", Column: 32, Missing: 999, Max: unbounded},
	LiquidPrecipitationDepth:              {Name: "liquid_precipitation_depth", Column: 33, Unit: "mm", Missing: 999, Max: unbounded},
	LiquidPrecipitationQuantity:           {Name: "liquid_precipitation_quantity", Column: 34, Unit: "hr", Missing: 99, Max: unbounded},
}

// Spec returns the storage description of f.
func (f Field) Spec() FieldSpec { return fieldSpecs[f] }

// String returns the column name of f.
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "unknown"
	}
	return fieldSpecs[f].Name
}

// Fields returns every numeric field in EPW column order.
func Fields() []Field {
	out := make([]Field, NumFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// decode maps a parsed number to a Reading, turning sentinels and
// out-of-range values into the missing marker. discarded is true only for a
// number that is neither a sentinel nor inside the field's range.
func (s FieldSpec) decode(v float64) (r Reading, discarded bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}, true
	}
	if !math.IsNaN(s.Missing) && v >= s.Missing {
		return Reading{}, false
	}
	if v < s.Min || v > s.Max {
		return Reading{}, true
	}
	return Reading{Value: v, Valid: true}, false
}

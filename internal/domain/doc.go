// Package domain models EnergyPlus Weather (EPW) files and the thermal-comfort
// enrichment applied to their hourly records.
//
// # Data Source
//
// EPW files are produced upstream (climate.onebuilding.org archives, morphed by
// the Future Weather Generator) and deposited in a directory before the merge
// runs. The format is documented in the EnergyPlus "Auxiliary Programs" guide,
// section "EnergyPlus Weather File (EPW) Data Dictionary".
//
// # File Layout
//
// Eight comma-separated header lines, each starting with a fixed keyword:
//
//	LOCATION,Lisboa,-,PRT,IWEC Data,085360,38.73,-9.15,0.0,71.0
//	DESIGN CONDITIONS,...
//	TYPICAL/EXTREME PERIODS,...
//	GROUND TEMPERATURES,...
//	HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0
//	COMMENTS 1,...
//	COMMENTS 2,...
//	DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31
//
// LOCATION carries exactly ten fields: keyword, city, state, country, source,
// WMO station, latitude, longitude, time zone (hours from GMT) and elevation
// (m). The second HOLIDAYS/DAYLIGHT SAVINGS field says whether February 29 is
// present ("Yes"). DATA PERIODS gives the number of periods, records per hour
// and, per period, a name, the start weekday and "m/d" start and end dates.
//
// # Data Rows
//
// Every following line is one record with exactly 35 fields: year, month, day,
// hour (1-24, hour ending), minute, data source and uncertainty flags, then the
// weather fields listed in [Fields] and the present weather codes at position
// 27. A full year at one record per hour is 8760 rows, or 8784 when the leap
// year flag is set.
//
// Missing values:
//
//	Each numeric field has a documented sentinel (99.9 for temperatures, 999
//	for humidity and wind, 9999 for radiation, ...). Values at or above the
//	sentinel, empty fields and values outside the field's physical range
//	decode to an invalid [Reading] rather than a number, so comfort models
//	see "cannot compute" instead of a plausible-looking 999 m/s wind.
//
// # Comfort Enrichment
//
// Comfort models are optional collaborators behind [ComfortModel]. When the
// run is strict they are never loaded or called. Otherwise each model gets one
// column-oriented batch per file (see [ComputeComfortColumns]). Mean radiant
// temperature is taken equal to dry-bulb temperature because EPW carries no
// radiant temperature. Wind speed feeding UTCI-family models is clamped to the
// model's validity range only when [Options.LimitUTCI] is set; the stored
// wind_speed column always keeps the measured value.
package domain

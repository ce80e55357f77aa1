// Package catalog holds the static registry of layer names known for each
// data provider. The registry is advisory: provider catalogs change
// independently of this list, so validation emits warnings and passes
// unknown names through rather than rejecting them.
package catalog

import "github.com/agrefed/harvester/common"

// Registry describes one provider's catalog
type Registry struct {
	Title            string
	Description      string
	CRS              string
	Coverage         common.BoundingBox
	ResolutionArcsec float64
	// Layers maps layer identifier to human readable title
	Layers map[string]string
}

var registries = map[common.SourceID]Registry{
	common.SourceSLGA: {
		Title:            "SLGA",
		Description:      "National Soil and Landscape Grid of Australia",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112.9995833334, South: -44.0004166670144, East: 153.999583334061, North: -10.0004166664663},
		ResolutionArcsec: 3,
		Layers: map[string]string{
			"Bulk_Density":                       "Bulk Density (whole earth)",
			"Organic_Carbon":                     "Organic Carbon",
			"Clay":                               "Clay",
			"Silt":                               "Silt",
			"Sand":                               "Sand",
			"pH_CaCl2":                           "pH (CaCl2)",
			"Available_Water_Capacity":           "Available Water Capacity",
			"Total_Nitrogen":                     "Total Nitrogen",
			"Total_Phosphorus":                   "Total Phosphorus",
			"Effective_Cation_Exchange_Capacity": "Effective Cation Exchange Capacity",
			"Depth_of_Regolith":                  "Depth of Regolith",
			"Depth_of_Soil":                      "Depth of Soil",
		},
	},
	common.SourceSILO: {
		Title:            "SILO climate database",
		Description:      "SILO is containing continuous daily climate data for Australia from 1889 to present",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112, South: -44, East: 154, North: -10},
		ResolutionArcsec: 180,
		Layers: map[string]string{
			"daily_rain":          "Daily rainfall, mm",
			"monthly_rain":        "Monthly rainfall, mm",
			"max_temp":            "Maximum temperature, degrees Celsius",
			"min_temp":            "Minimum temperature, degrees Celsius",
			"vp":                  "Vapour pressure, hPa",
			"vp_deficit":          "Vapour pressure deficit, hPa",
			"evap_pan":            "Class A pan evaporation, mm",
			"evap_syn":            "Synthetic estimate, mm",
			"evap_comb":           "Combination: synthetic estimate pre-1970, class A pan 1970 onwards, mm",
			"evap_morton_lake":    "Morton's shallow lake evaporation, mm",
			"radiation":           "Solar radiation: direct and diffuse components, MJ/m2",
			"rh_tmax":             "Relative humidity at the time of maximum temperature, %",
			"rh_tmin":             "Relative humidity at the time of minimum temperature, %",
			"et_short_crop":       "Evapotranspiration FAO56 short crop, mm",
			"et_tall_crop":        "Evapotranspiration ASCE tall crop, mm",
			"et_morton_actual":    "Morton's areal actual evapotranspiration, mm",
			"et_morton_potential": "Morton's point potential evapotranspiration, mm",
			"et_morton_wet":       "Morton's wet-environment areal potential evapotranspiration over land, mm",
			"mslp":                "Mean sea level pressure, hPa",
		},
	},
	common.SourceDEM: {
		Title:            "DEM",
		Description:      "Digital Elevation Model (DEM) of Australia derived from STRM with 1 Second Grid",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112.9995833334, South: -44.0004166670144, East: 153.999583334061, North: -10.0004166664663},
		ResolutionArcsec: 1,
		Layers: map[string]string{
			"DEM":    "Digital Elevation Model",
			"Slope":  "Slope",
			"Aspect": "Aspect Ratio",
		},
	},
	common.SourceLandscape: {
		Title:            "Landscape",
		Description:      "Landscape attributes of the Soil and Landscape Grid of Australia",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112.9995833334, South: -44.0004166670144, East: 153.999583334061, North: -10.0004166664663},
		ResolutionArcsec: 3,
		Layers: map[string]string{
			"Prescott_index":                    "Prescott index",
			"net_radiation_jan":                 "Net radiation (January)",
			"net_radiation_july":                "Net radiation (July)",
			"total_shortwave_sloping_surf_jan":  "Total shortwave on sloping surface (January)",
			"total_shortwave_sloping_surf_july": "Total shortwave on sloping surface (July)",
			"Slope":                             "Slope",
			"Slope_median_300m":                 "Slope median over 300m",
			"Slope_relief_class":                "Slope relief class",
			"Aspect":                            "Aspect",
			"Relief_1000m":                      "Relief over 1000m",
			"Relief_300m":                       "Relief over 300m",
			"Topographic_wetness_index":         "Topographic wetness index",
			"TPI_mask":                          "Topographic position index mask",
			"SRTM_TopographicPositionIndex":     "SRTM topographic position index",
			"Contributing_area":                 "Contributing area",
			"MrVBF":                             "Multi-resolution valley bottom flatness",
			"Plan_curvature":                    "Plan curvature",
			"Profile_curvature":                 "Profile curvature",
		},
	},
	common.SourceRadiometric: {
		Title:            "Radiometric",
		Description:      "Radiometric Grid of Australia (Radmap) v4 2019",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112, South: -44, East: 154, North: -10},
		ResolutionArcsec: 3.6,
		Layers: map[string]string{
			"radmap2019_grid_dose_terr_awags_rad_2019":          "Unfiltered terrestrial dose rate",
			"radmap2019_grid_dose_terr_filtered_awags_rad_2019": "Filtered terrestrial dose rate",
			"radmap2019_grid_k_conc_awags_rad_2019":             "Unfiltered pct potassium",
			"radmap2019_grid_k_conc_filtered_awags_rad_2019":    "Filtered pct potassium",
			"radmap2019_grid_th_conc_awags_rad_2019":            "Unfiltered ppm thorium",
			"radmap2019_grid_th_conc_filtered_awags_rad_2019":   "Filtered ppm thorium",
			"radmap2019_grid_thk_ratio_awags_rad_2019":          "Ratio thorium over potassium",
			"radmap2019_grid_u2th_ratio_awags_rad_2019":         "Ratio uranium squared over thorium",
			"radmap2019_grid_u_conc_awags_rad_2019":             "Unfiltered ppm uranium",
			"radmap2019_grid_u_conc_filtered_awags_rad_2019":    "Filtered ppm uranium",
			"radmap2019_grid_uk_ratio_awags_rad_2019":           "Ratio uranium over potassium",
			"radmap2019_grid_uth_ratio_awags_rad_2019":          "Ratio uranium over thorium",
		},
	},
	common.SourceDEA: {
		Title:            "DEA",
		Description:      "Digital Earth Australia OGC Web Services",
		CRS:              "EPSG:4326",
		Coverage:         common.BoundingBox{West: 112, South: -44, East: 154, North: -10},
		ResolutionArcsec: 1,
		Layers: map[string]string{
			"ga_ls_ard_3":              "DEA Surface Reflectance (Landsat)",
			"s2_nrt_granule_nbar_t":    "DEA Surface Reflectance (Sentinel-2 Near Real-Time)",
			"s2_ard_granule_nbar_t":    "DEA Surface Reflectance (Sentinel-2)",
			"ga_ls8c_nbart_gm_cyear_3": "DEA GeoMAD (Landsat 8 OLI-TIRS)",
			"ga_ls7e_nbart_gm_cyear_3": "DEA GeoMAD (Landsat 7 ETM+)",
			"ga_ls5t_nbart_gm_cyear_3": "DEA GeoMAD (Landsat 5 TM)",
			"ga_ls8c_ard_3":            "DEA Surface Reflectance (Landsat 8 OLI-TIRS)",
			"ga_ls7e_ard_3":            "DEA Surface Reflectance (Landsat 7 ETM+)",
			"ga_ls5t_ard_3":            "DEA Surface Reflectance (Landsat 5 TM)",
			"ga_ls_landcover":          "DEA Land Cover Calendar Year (Landsat)",
			"ga_ls_fc_3":               "DEA Fractional Cover (Landsat)",
			"ga_ls_fc_pc_cyear_3":      "DEA Fractional Cover Percentiles Calendar Year (Landsat)",
			"ga_ls_mangrove_cover_cyear_3": "DEA Mangroves (Landsat)",
			"s2_barest_earth":          "GA Barest Earth (Sentinel-2)",
			"ls8_barest_earth_mosaic":  "GA Barest Earth (Landsat 8 OLI/TIRS)",
			"landsat_barest_earth":     "GA Barest Earth (Landsat)",
			"ga_ls_tcw_percentiles_2":  "DEA Wetness Percentiles (Landsat)",
			"ga_ls_tc_pc_cyear_3":      "DEA Tasseled Cap Indices Percentiles Calendar Year (Landsat)",
			"ga_ls_wo_3":               "DEA Water Observations (Landsat)",
			"ga_ls_wo_fq_myear_3":      "DEA Water Observations Multi Year (Landsat)",
			"ga_ls_wo_fq_cyear_3":      "DEA Water Observations Calendar Year (Landsat)",
			"ga_ls_wo_fq_apr_oct_3":    "DEA Water Observations April to October (Landsat)",
			"ga_ls_wo_fq_nov_mar_3":    "DEA Water Observations November to March (Landsat)",
			"multi_scale_topographic_position": "Multi-Scale Topographic Position",
			"weathering_intensity":     "Weathering Intensity",
		},
	},
}

// Lookup returns the registry for a source. The second value is false for
// sources without a static catalog (e.g. RemoteImage, whose catalog lives
// server-side).
func Lookup(source common.SourceID) (Registry, bool) {
	r, ok := registries[source]
	return r, ok
}

// Describe returns the layer identifier to title mapping of a source
func Describe(source common.SourceID) map[string]string {
	return registries[source].Layers
}

// SummaryFunctions lists the supported temporal aggregation statistics
var SummaryFunctions = []string{"mean", "median", "sum", "std", "perc95", "perc5", "max", "min"}

// SLGADepths are the GlobalSoilMap depth intervals of the SLGA products, in cm
var SLGADepths = []string{"0-5cm", "5-15cm", "15-30cm", "30-60cm", "60-100cm", "100-200cm"}

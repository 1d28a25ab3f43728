package filter

// cqcColumns is the full filterable surface over the CQC location tables.
// Order here is the discovery order and the default projection order.
func cqcColumns() []Column {
	cols := []Column{
		// Location identification
		text("location_id", TableLocations, "location_id", CategoryLocation),
		date("location_hsca_start_date", TableLocations, "location_hsca_start_date", CategoryLocation),
		flagYN("is_dormant", TablePeriodData, "is_dormant", CategoryLocationStatus),
		flagYN("is_care_home", TablePeriodData, "is_care_home", CategoryLocationStatus),
		text("location_name", TableLocations, "location_name", CategoryLocation),
		text("location_ods_code", TableLocations, "location_ods_code", CategoryLocation),
		text("location_telephone_number", TableLocations, "location_telephone_number", CategoryLocation),
		text("registered_manager", TablePeriodData, "registered_manager", CategoryLocationStatus),
		integer("care_homes_beds", TablePeriodData, "care_homes_beds", CategoryLocationStatus),
		text("location_type_sector", TableLocations, "location_type_sector", CategoryLocation),

		// Inspection and rating
		text("location_inspection_directorate", TableLocations, "location_inspection_directorate", CategoryLocation),
		text("location_primary_inspection_category", TableLocations, "location_primary_inspection_category", CategoryLocation),
		text("latest_overall_rating", TablePeriodData, "latest_overall_rating", CategoryLocationStatus),
		date("publication_date", TablePeriodData, "publication_date", CategoryLocationStatus),
		flag("is_inherited_rating", TablePeriodData, "is_inherited_rating", CategoryLocationStatus),

		// Geography and address
		text("location_region", TableLocations, "location_region", CategoryLocation),
		text("location_nhs_region", TableLocations, "location_nhs_region", CategoryLocation),
		text("location_local_authority", TableLocations, "location_local_authority", CategoryLocation),
		text("location_onspd_ccg_code", TableLocations, "location_onspd_ccg_code", CategoryLocation),
		text("location_onspd_ccg", TableLocations, "location_onspd_ccg", CategoryLocation),
		text("location_commissioning_ccg_code", TableLocations, "location_commissioning_ccg_code", CategoryLocation),
		text("location_commissioning_ccg", TableLocations, "location_commissioning_ccg", CategoryLocation),
		text("location_street_address", TableLocations, "location_street_address", CategoryLocation),
		text("location_address_line_2", TableLocations, "location_address_line_2", CategoryLocation),
		text("location_city", TableLocations, "location_city", CategoryLocation),
		text("location_county", TableLocations, "location_county", CategoryLocation),
		text("location_postal_code", TableLocations, "location_postal_code", CategoryLocation),
		text("location_paf_id", TableLocations, "location_paf_id", CategoryLocation),
		text("location_uprn_id", TableLocations, "location_uprn_id", CategoryLocation),
		float("location_latitude", TableLocations, "location_latitude", CategoryLocation),
		float("location_longitude", TableLocations, "location_longitude", CategoryLocation),
		text("location_parliamentary_constituency", TableLocations, "location_parliamentary_constituency", CategoryLocation),
		text("location_also_known_as", TableLocations, "location_also_known_as", CategoryLocation),
		text("location_specialisms", TableLocations, "location_specialisms", CategoryLocation),
		text("location_web_address", TableLocations, "location_web_address", CategoryLocation),

		// Provider
		text("companies_house_number", TableProviders, "companies_house_number", CategoryProvider),
		integer("charity_number", TableProviders, "charity_number", CategoryProvider),
		text("brand_id", TableProviders, "brand_id", CategoryBrand),
		text("provider_id", TableProviders, "provider_id", CategoryProvider),
		text("provider_name", TableProviders, "provider_name", CategoryProvider),
		date("provider_hsca_start_date", TableProviders, "hsca_start_date", CategoryProvider),
		text("provider_type_sector", TableProviders, "type_sector", CategoryProvider),
		text("provider_inspection_directorate", TableProviders, "inspection_directorate", CategoryProvider),
		text("provider_primary_inspection_category", TableProviders, "primary_inspection_category", CategoryProvider),
		text("ownership_type", TableProviders, "ownership_type", CategoryProvider),
		integer("provider_telephone_number", TableProviders, "telephone_number", CategoryProvider),
		text("provider_web_address", TableProviders, "web_address", CategoryProvider),
		text("provider_street_address", TableProviders, "street_address", CategoryProvider),
		text("provider_address_line_2", TableProviders, "address_line_2", CategoryProvider),
		text("provider_city", TableProviders, "city", CategoryProvider),
		text("provider_county", TableProviders, "county", CategoryProvider),
		text("provider_postal_code", TableProviders, "postal_code", CategoryProvider),
		integer("provider_paf_id", TableProviders, "paf_id", CategoryProvider),
		integer("provider_uprn_id", TableProviders, "uprn_id", CategoryProvider),
		text("provider_local_authority", TableProviders, "local_authority", CategoryProvider),
		text("provider_region", TableProviders, "region", CategoryProvider),
		text("provider_nhs_region", TableProviders, "nhs_region", CategoryProvider),
		float("provider_latitude", TableProviders, "latitude", CategoryProvider),
		float("provider_longitude", TableProviders, "longitude", CategoryProvider),
		text("provider_parliamentary_constituency", TableProviders, "parliamentary_constituency", CategoryProvider),
		text("nominated_individual_name", TableProviders, "nominated_individual_name", CategoryProvider),
		text("main_partner_name", TableProviders, "main_partner_name", CategoryProvider),

		// Brand
		text("brand_name", TableBrands, "brand_name", CategoryBrand),
	}

	for _, name := range regulatedActivities {
		cols = append(cols, flag(name, TableActivityFlags, name, CategoryRegulatedActivity))
	}
	for _, name := range serviceTypes {
		cols = append(cols, flag(name, TableActivityFlags, name, CategoryServiceType))
	}
	for _, name := range serviceUserBands {
		cols = append(cols, flag(name, TableActivityFlags, name, CategoryUserBand))
	}

	cols = append(cols,
		// Period
		integer("year", TableDataPeriods, "year", CategoryPeriod),
		integer("month", TableDataPeriods, "month", CategoryPeriod),
		text("file_name", TableDataPeriods, "file_name", CategoryPeriod),

		// Dual registration
		Column{
			Name:      "is_dual_registered",
			Table:     TableDualRegistrations,
			Expr:      "(CASE WHEN dr.location_id IS NOT NULL THEN true ELSE false END)",
			Type:      TypeFlag,
			Operators: TypeFlag.DefaultOperators(),
			Category:  CategoryDualRegistration,
		},
		text("dual_linked_organisation_id", TableDualRegistrations, "linked_organisation_id", CategoryDualRegistration),
		text("dual_relationship_type", TableDualRegistrations, "relationship_type", CategoryDualRegistration),
		date("dual_relationship_start_date", TableDualRegistrations, "relationship_start_date", CategoryDualRegistration),
		flag("is_primary_in_dual", TableDualRegistrations, "is_primary", CategoryDualRegistration),
	)
	return cols
}

var regulatedActivities = []string{
	"accommodation_nursing_personal_care",
	"treatment_disease_disorder_injury",
	"assessment_medical_treatment",
	"surgical_procedures",
	"diagnostic_screening",
	"management_supply_blood",
	"transport_services",
	"maternity_midwifery",
	"termination_pregnancies",
	"services_slimming",
	"nursing_care",
	"personal_care",
	"accommodation_persons_detoxification",
	"accommodation_persons_past_present_alcohol_dependence",
	"family_planning",
}

var serviceTypes = []string{
	"acute_services_with_overnight_beds",
	"acute_services_without_overnight_beds",
	"ambulance_service",
	"blood_and_transplant_service",
	"care_home_nursing",
	"care_home_without_nursing",
	"community_based_services_substance_misuse",
	"community_based_services_learning_disability",
	"community_based_services_mental_health",
	"community_health_care_independent_midwives",
	"community_health_care_nurses_agency",
	"community_health_care",
	"dental_service",
	"diagnostic_screening_service",
	"diagnostic_screening_single_handed_sessional",
	"doctors_consultation",
	"doctors_treatment",
	"domiciliary_care",
	"extra_care_housing",
	"hospice_services",
	"hospice_services_at_home",
	"hospital_services_mental_health_learning_disabilities",
	"hospital_services_acute",
	"hyperbaric_chamber",
	"long_term_conditions",
	"mobile_doctors",
	"prison_healthcare",
	"rehabilitation_services",
	"remote_clinical_advice",
	"residential_substance_misuse_treatment",
	"shared_lives",
	"specialist_college",
	"supported_living",
	"urgent_care",
}

// serviceUserBands includes the legacy age bands kept for older files.
var serviceUserBands = []string{
	"children_0_18_years",
	"dementia",
	"learning_disabilities_autistic",
	"mental_health_needs",
	"older_people_65_plus",
	"people_detained_mental_health_act",
	"people_who_misuse_drugs_alcohol",
	"people_with_eating_disorder",
	"physical_disability",
	"sensory_impairment",
	"whole_population",
	"younger_adults",
	"children_0_3_years",
	"children_4_12_years",
	"children_13_18_years",
	"adults_18_65_years",
}

func column(name string, t Table, field string, vt ValueType, cat Category) Column {
	return Column{
		Name:      name,
		Table:     t,
		Field:     field,
		Type:      vt,
		Operators: vt.DefaultOperators(),
		Category:  cat,
	}
}

func text(name string, t Table, field string, cat Category) Column {
	return column(name, t, field, TypeString, cat)
}

func integer(name string, t Table, field string, cat Category) Column {
	return column(name, t, field, TypeInteger, cat)
}

func float(name string, t Table, field string, cat Category) Column {
	return column(name, t, field, TypeFloat, cat)
}

func date(name string, t Table, field string, cat Category) Column {
	return column(name, t, field, TypeDate, cat)
}

func flag(name string, t Table, field string, cat Category) Column {
	return column(name, t, field, TypeFlag, cat)
}

func flagYN(name string, t Table, field string, cat Category) Column {
	c := column(name, t, field, TypeFlag, cat)
	c.Flag = FlagYesNo
	return c
}

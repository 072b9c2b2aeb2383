package factors

import "github.com/solatis/tpaconsole/internal/types"

var yesNo = []string{"YES", "NO"}

func str(key, name string, allowed ...string) types.FactorDefinition {
	return types.FactorDefinition{Key: key, Name: name, DataType: types.DataTypeString, AllowedValues: allowed}
}

func num(key, name string) types.FactorDefinition {
	return types.FactorDefinition{Key: key, Name: name, DataType: types.DataTypeNumber}
}

func describe(f types.FactorDefinition, description string) types.FactorDefinition {
	f.Description = description
	return f
}

// defaultCategories is the built-in catalog, in display order.
// "specialty" appears under doctor and procedure; the procedure definition wins.
var defaultCategories = []types.FactorCategory{
	{
		Key:  "patient",
		Name: "Patient",
		Factors: []types.FactorDefinition{
			num("patient_age", "Patient Age"),
			str("gender", "Gender", "M", "F"),
			str("patient_nationality", "Nationality"),
			str("marital_status", "Marital Status", "SINGLE", "MARRIED", "DIVORCED", "WIDOWED"),
			str("is_pregnant", "Pregnant", yesNo...),
			str("chronic_condition", "Chronic Condition", yesNo...),
			num("patient_bmi", "Body Mass Index"),
			str("member_relation", "Member Relation", "PRINCIPAL", "SPOUSE", "CHILD", "PARENT"),
		},
	},
	{
		Key:  "provider",
		Name: "Provider",
		Factors: []types.FactorDefinition{
			str("provider_type", "Provider Type", "HOSPITAL", "CLINIC", "POLYCLINIC", "PHARMACY", "LAB", "RADIOLOGY"),
			str("provider_id", "Provider"),
			str("provider_tier", "Provider Tier", "A", "B", "C"),
			str("network_id", "Network"),
			str("provider_class", "Provider Class", "PRIVATE", "PUBLIC", "NGO"),
		},
	},
	{
		Key:  "doctor",
		Name: "Doctor",
		Factors: []types.FactorDefinition{
			str("doctor_id", "Doctor"),
			str("specialty", "Doctor Specialty"),
			str("doctor_grade", "Doctor Grade", "CONSULTANT", "SPECIALIST", "GP", "RESIDENT"),
			num("doctor_years_experience", "Years of Experience"),
		},
	},
	{
		Key:  "visit",
		Name: "Visit",
		Factors: []types.FactorDefinition{
			str("visit_type", "Visit Type", "OPD", "IPD", "ER", "DAYCASE"),
			str("admission_type", "Admission Type", "ELECTIVE", "EMERGENCY"),
			num("length_of_stay", "Length of Stay (days)"),
			str("room_class", "Room Class", "WARD", "SEMI_PRIVATE", "PRIVATE", "SUITE", "ICU"),
			str("is_follow_up", "Follow-up Visit", yesNo...),
			str("referral_source", "Referral Source", "SELF", "GP", "SPECIALIST", "EMERGENCY"),
		},
	},
	{
		Key:  "policy",
		Name: "Policy",
		Factors: []types.FactorDefinition{
			str("policy_id", "Policy"),
			str("plan_code", "Plan"),
			str("policy_class", "Policy Class", "PLATINUM", "GOLD", "SILVER", "BRONZE", "VIP"),
			str("coverage_type", "Coverage Type", "INDIVIDUAL", "FAMILY", "GROUP", "CORPORATE"),
			num("policy_year", "Policy Year"),
			num("copay_percent", "Co-pay (%)"),
			num("deductible_amount", "Deductible Amount"),
			num("annual_limit", "Annual Limit"),
		},
	},
	{
		Key:  "procedure",
		Name: "Procedure",
		Factors: []types.FactorDefinition{
			str("procedure_code", "Procedure Code"),
			str("procedure_category", "Procedure Category", "CONSULTATION", "LAB", "RADIOLOGY", "SURGERY", "DENTAL", "PHYSIOTHERAPY", "PHARMACY"),
			str("specialty", "Procedure Specialty"),
			num("procedure_quantity", "Quantity"),
			str("anesthesia_type", "Anesthesia", "NONE", "LOCAL", "REGIONAL", "GENERAL"),
			str("is_bilateral", "Bilateral", yesNo...),
			describe(str("icd_code", "Diagnosis (ICD)"), "ICD-10 code of the primary diagnosis"),
		},
	},
	{
		Key:  "location",
		Name: "Location",
		Factors: []types.FactorDefinition{
			str("country", "Country"),
			str("governorate", "Governorate"),
			str("city", "City"),
			str("zone", "Zone", "URBAN", "RURAL"),
			str("in_network", "In Network", yesNo...),
		},
	},
	{
		Key:  "time",
		Name: "Time",
		Factors: []types.FactorDefinition{
			str("day_of_week", "Day of Week", "MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"),
			str("time_of_day", "Time of Day", "MORNING", "AFTERNOON", "EVENING", "NIGHT"),
			str("is_holiday", "Public Holiday", yesNo...),
			num("month", "Month"),
			num("service_hour", "Service Hour"),
		},
	},
	{
		Key:  "claim",
		Name: "Claim",
		Factors: []types.FactorDefinition{
			str("claim_type", "Claim Type", "CASH", "CREDIT", "REIMBURSEMENT"),
			num("claim_amount", "Claim Amount"),
			str("claim_channel", "Submission Channel", "PORTAL", "EDI", "PAPER", "API"),
			num("previous_claims_count", "Previous Claims"),
			num("days_since_last_claim", "Days Since Last Claim"),
			str("is_resubmission", "Resubmission", yesNo...),
			str("pre_authorized", "Pre-authorized", yesNo...),
		},
	},
	{
		Key:  "advanced",
		Name: "Advanced / AI",
		Factors: []types.FactorDefinition{
			describe(num("fraud_risk_score", "Fraud Risk Score"), "Model score in [0, 100]"),
			str("ai_risk_band", "AI Risk Band", "LOW", "MEDIUM", "HIGH"),
			num("predicted_cost", "Predicted Cost"),
			num("utilization_score", "Utilization Score"),
			str("anomaly_flag", "Anomaly Flag", yesNo...),
		},
	},
}

package catalog

import "github.com/IANDYI/immunization-service/internal/core/domain"

// dose builds a catalog entry from the fields the built-in tables carry
func dose(name, code string, weeks int, label, description string) domain.VaccineDoseDefinition {
	return domain.VaccineDoseDefinition{
		Name:           name,
		Code:           code,
		AgeOffsetWeeks: weeks,
		AgeLabel:       label,
		Description:    description,
	}
}

// indiaUIPSchedule is the Universal Immunization Programme of India.
// Month labels map to fixed week offsets (9 Months = 39 weeks).
var indiaUIPSchedule = []domain.VaccineDoseDefinition{
	dose("BCG", "BCG", 0, "At Birth", "Bacillus Calmette-Guerin vaccine for Tuberculosis"),
	dose("OPV-0", "OPV0", 0, "At Birth", "Oral Polio Vaccine - Zero dose"),
	dose("Hepatitis B-Birth", "HEPB0", 0, "At Birth", "Hepatitis B vaccine - Birth dose"),
	dose("OPV-1", "OPV1", 6, "6 Weeks", "Oral Polio Vaccine - First dose"),
	dose("Pentavalent-1", "PENTA1", 6, "6 Weeks", "DPT + Hep B + Hib - First dose"),
	dose("Rotavirus-1", "ROTA1", 6, "6 Weeks", "Rotavirus vaccine - First dose"),
	dose("PCV-1", "PCV1", 6, "6 Weeks", "Pneumococcal Conjugate Vaccine - First dose"),
	dose("IPV-1", "IPV1", 6, "6 Weeks", "Inactivated Polio Vaccine - First dose"),
	dose("OPV-2", "OPV2", 10, "10 Weeks", "Oral Polio Vaccine - Second dose"),
	dose("Pentavalent-2", "PENTA2", 10, "10 Weeks", "DPT + Hep B + Hib - Second dose"),
	dose("Rotavirus-2", "ROTA2", 10, "10 Weeks", "Rotavirus vaccine - Second dose"),
	dose("OPV-3", "OPV3", 14, "14 Weeks", "Oral Polio Vaccine - Third dose"),
	dose("Pentavalent-3", "PENTA3", 14, "14 Weeks", "DPT + Hep B + Hib - Third dose"),
	dose("Rotavirus-3", "ROTA3", 14, "14 Weeks", "Rotavirus vaccine - Third dose"),
	dose("PCV-2", "PCV2", 14, "14 Weeks", "Pneumococcal Conjugate Vaccine - Second dose"),
	dose("IPV-2", "IPV2", 14, "14 Weeks", "Inactivated Polio Vaccine - Second dose"),
	dose("Measles-1 / MR-1", "MR1", 39, "9 Months", "Measles-Rubella vaccine - First dose"),
	dose("Vitamin A-1", "VITA1", 39, "9 Months", "Vitamin A supplementation - First dose"),
	dose("PCV Booster", "PCVB", 39, "9 Months", "Pneumococcal Conjugate Vaccine - Booster"),
	dose("JE-1", "JE1", 39, "9 Months", "Japanese Encephalitis - First dose (endemic areas)"),
	dose("MR-2", "MR2", 65, "16-24 Months", "Measles-Rubella vaccine - Second dose"),
	dose("DPT Booster-1", "DPTB1", 65, "16-24 Months", "DPT Booster - First dose"),
	dose("OPV Booster", "OPVB", 65, "16-24 Months", "Oral Polio Vaccine - Booster"),
	dose("JE-2", "JE2", 65, "16-24 Months", "Japanese Encephalitis - Second dose"),
	dose("Vitamin A-2", "VITA2", 65, "16 Months", "Vitamin A supplementation - Second dose"),
	dose("DPT Booster-2", "DPTB2", 260, "5-6 Years", "DPT Booster - Second dose"),
	dose("Td/TT", "TD", 520, "10 Years", "Tetanus and Diphtheria vaccine"),
	dose("Td/TT", "TD2", 780, "16 Years", "Tetanus and Diphtheria vaccine - Booster"),
}

// whoSchedule follows the WHO recommended routine immunizations
var whoSchedule = []domain.VaccineDoseDefinition{
	dose("BCG", "BCG", 0, "At Birth", "Bacillus Calmette-Guerin for Tuberculosis"),
	dose("Hepatitis B-Birth", "HEPB0", 0, "At Birth", "Hepatitis B vaccine - Birth dose (within 24 hours)"),
	dose("OPV-0", "OPV0", 0, "At Birth", "Oral Polio Vaccine - Birth dose"),
	dose("DTP-1", "DTP1", 6, "6 Weeks", "Diphtheria-Tetanus-Pertussis - First dose"),
	dose("Hepatitis B-1", "HEPB1", 6, "6 Weeks", "Hepatitis B vaccine - First dose"),
	dose("Hib-1", "HIB1", 6, "6 Weeks", "Haemophilus influenzae type b - First dose"),
	dose("Polio-1", "POLIO1", 6, "6 Weeks", "Polio vaccine - First dose"),
	dose("Pneumococcal-1", "PCV1", 6, "6 Weeks", "Pneumococcal Conjugate Vaccine - First dose"),
	dose("Rotavirus-1", "ROTA1", 6, "6 Weeks", "Rotavirus vaccine - First dose"),
	dose("DTP-2", "DTP2", 10, "10 Weeks", "Diphtheria-Tetanus-Pertussis - Second dose"),
	dose("Hepatitis B-2", "HEPB2", 10, "10 Weeks", "Hepatitis B vaccine - Second dose"),
	dose("Hib-2", "HIB2", 10, "10 Weeks", "Haemophilus influenzae type b - Second dose"),
	dose("Polio-2", "POLIO2", 10, "10 Weeks", "Polio vaccine - Second dose"),
	dose("Pneumococcal-2", "PCV2", 10, "10 Weeks", "Pneumococcal Conjugate Vaccine - Second dose"),
	dose("Rotavirus-2", "ROTA2", 10, "10 Weeks", "Rotavirus vaccine - Second dose"),
	dose("DTP-3", "DTP3", 14, "14 Weeks", "Diphtheria-Tetanus-Pertussis - Third dose"),
	dose("Hepatitis B-3", "HEPB3", 14, "14 Weeks", "Hepatitis B vaccine - Third dose"),
	dose("Hib-3", "HIB3", 14, "14 Weeks", "Haemophilus influenzae type b - Third dose"),
	dose("Polio-3", "POLIO3", 14, "14 Weeks", "Polio vaccine - Third dose"),
	dose("Pneumococcal-3", "PCV3", 14, "14 Weeks", "Pneumococcal Conjugate Vaccine - Third dose"),
	dose("IPV", "IPV", 14, "14 Weeks", "Inactivated Polio Vaccine"),
	dose("Measles-1", "MCV1", 39, "9 Months", "Measles containing vaccine - First dose"),
	dose("Rubella", "RCV", 39, "9 Months", "Rubella containing vaccine"),
	dose("Yellow Fever", "YF", 39, "9 Months", "Yellow Fever vaccine (endemic areas)"),
	dose("Vitamin A", "VITA", 39, "9 Months", "Vitamin A supplementation"),
	dose("Measles-2", "MCV2", 65, "15-18 Months", "Measles containing vaccine - Second dose"),
	dose("DTP Booster", "DTPB", 65, "15-18 Months", "DTP Booster dose"),
}

// cdcSchedule follows the CDC (USA) child and adolescent schedule.
// Storage order is not chronological; the catalog sorts on load.
var cdcSchedule = []domain.VaccineDoseDefinition{
	dose("Hepatitis B-1", "HEPB1", 0, "At Birth", "Hepatitis B vaccine - First dose"),
	dose("Hepatitis B-2", "HEPB2", 4, "1-2 Months", "Hepatitis B vaccine - Second dose"),
	dose("DTaP-1", "DTAP1", 8, "2 Months", "Diphtheria, Tetanus, Pertussis - First dose"),
	dose("Hib-1", "HIB1", 8, "2 Months", "Haemophilus influenzae type b - First dose"),
	dose("IPV-1", "IPV1", 8, "2 Months", "Inactivated Polio Vaccine - First dose"),
	dose("PCV13-1", "PCV1", 8, "2 Months", "Pneumococcal Conjugate Vaccine - First dose"),
	dose("RV-1", "RV1", 8, "2 Months", "Rotavirus vaccine - First dose"),
	dose("DTaP-2", "DTAP2", 16, "4 Months", "Diphtheria, Tetanus, Pertussis - Second dose"),
	dose("Hib-2", "HIB2", 16, "4 Months", "Haemophilus influenzae type b - Second dose"),
	dose("IPV-2", "IPV2", 16, "4 Months", "Inactivated Polio Vaccine - Second dose"),
	dose("PCV13-2", "PCV2", 16, "4 Months", "Pneumococcal Conjugate Vaccine - Second dose"),
	dose("RV-2", "RV2", 16, "4 Months", "Rotavirus vaccine - Second dose"),
	dose("DTaP-3", "DTAP3", 24, "6 Months", "Diphtheria, Tetanus, Pertussis - Third dose"),
	dose("Hib-3", "HIB3", 24, "6 Months", "Haemophilus influenzae type b - Third dose"),
	dose("IPV-3", "IPV3", 24, "6 Months", "Inactivated Polio Vaccine - Third dose"),
	dose("PCV13-3", "PCV3", 24, "6 Months", "Pneumococcal Conjugate Vaccine - Third dose"),
	dose("RV-3", "RV3", 24, "6 Months", "Rotavirus vaccine - Third dose"),
	dose("Hepatitis B-3", "HEPB3", 24, "6-18 Months", "Hepatitis B vaccine - Third dose"),
	dose("Influenza (Yearly)", "FLU1", 26, "6 Months+", "Influenza vaccine - Annual dose"),
	dose("MMR-1", "MMR1", 52, "12-15 Months", "Measles, Mumps, Rubella - First dose"),
	dose("PCV13-4", "PCV4", 52, "12-15 Months", "Pneumococcal Conjugate Vaccine - Fourth dose"),
	dose("Hib-4", "HIB4", 52, "12-15 Months", "Haemophilus influenzae type b - Fourth dose"),
	dose("Varicella-1", "VAR1", 52, "12-15 Months", "Chickenpox vaccine - First dose"),
	dose("Hepatitis A-1", "HEPA1", 52, "12-23 Months", "Hepatitis A vaccine - First dose"),
	dose("DTaP-4", "DTAP4", 65, "15-18 Months", "Diphtheria, Tetanus, Pertussis - Fourth dose"),
	dose("Hepatitis A-2", "HEPA2", 78, "18+ Months", "Hepatitis A vaccine - Second dose"),
	dose("DTaP-5", "DTAP5", 208, "4-6 Years", "Diphtheria, Tetanus, Pertussis - Fifth dose"),
	dose("IPV-4", "IPV4", 208, "4-6 Years", "Inactivated Polio Vaccine - Fourth dose"),
	dose("MMR-2", "MMR2", 208, "4-6 Years", "Measles, Mumps, Rubella - Second dose"),
	dose("Varicella-2", "VAR2", 208, "4-6 Years", "Chickenpox vaccine - Second dose"),
	dose("Tdap", "TDAP", 572, "11-12 Years", "Tetanus, Diphtheria, Pertussis booster"),
	dose("HPV-1", "HPV1", 572, "11-12 Years", "Human Papillomavirus - First dose"),
	dose("HPV-2", "HPV2", 598, "11-12 Years + 6mo", "Human Papillomavirus - Second dose"),
	dose("Meningococcal-1", "MCV1", 572, "11-12 Years", "Meningococcal conjugate vaccine - First dose"),
	dose("Meningococcal-2", "MCV2", 832, "16 Years", "Meningococcal conjugate vaccine - Booster"),
}

// StaticCatalog serves the built-in guideline tables
type StaticCatalog struct {
	*table
}

// NewStaticCatalog creates a catalog with the India (UIP), WHO and CDC (USA) tables
func NewStaticCatalog() *StaticCatalog {
	t := newTable()
	t.add(domain.GuidelineIndiaUIP, indiaUIPSchedule)
	t.add(domain.GuidelineWHO, whoSchedule)
	t.add(domain.GuidelineCDC, cdcSchedule)
	return &StaticCatalog{table: t}
}

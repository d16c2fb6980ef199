package employee

// StableExample returns a record the bundled model scores as staying.
func StableExample() Record {
	return Record{
		Age:                              35,
		Genre:                            "M",
		RevenuMensuel:                    5000.0,
		StatutMarital:                    "Marié(e)",
		Departement:                      "Consulting",
		Poste:                            "Consultant",
		NombreExperiencesPrecedentes:     2,
		NombreHeuresTravailless:          80.0,
		AnneeExperienceTotale:            10,
		AnneesDansLEntreprise:            5,
		AnneesDansLePosteActuel:          3,
		SatisfactionEnvironnement:        4,
		NoteEvaluationPrecedente:         3,
		NiveauHierarchiquePoste:          2,
		SatisfactionNatureTravail:        4,
		SatisfactionEquipe:               4,
		SatisfactionEquilibreProPerso:    3,
		NoteEvaluationActuelle:           3,
		HeureSupplementaires:             "Non",
		AugmentationSalairePrecedente:    15,
		NombreParticipationPEE:           1,
		NbFormationsSuivies:              3,
		NombreEmployeeSousResponsabilite: 1,
		DistanceDomicileTravail:          10,
		NiveauEducation:                  3,
		DomaineEtude:                     "Transformation Digitale",
		AyantEnfants:                     "Y",
		FrequenceDeplacement:             "Occasionnel",
		AnneesDepuisLaDernierePromotion:  2,
		AnnesSousResponsableActuel:       3,
	}
}

// AtRiskExample returns a record the bundled model scores as leaving.
func AtRiskExample() Record {
	return Record{
		Age:                              28,
		Genre:                            "M",
		RevenuMensuel:                    2000.0,
		StatutMarital:                    "Célibataire",
		Departement:                      "Consulting",
		Poste:                            "Consultant",
		NombreExperiencesPrecedentes:     5,
		NombreHeuresTravailless:          80.0,
		AnneeExperienceTotale:            6,
		AnneesDansLEntreprise:            1,
		AnneesDansLePosteActuel:          0,
		SatisfactionEnvironnement:        1,
		NoteEvaluationPrecedente:         2,
		NiveauHierarchiquePoste:          1,
		SatisfactionNatureTravail:        1,
		SatisfactionEquipe:               2,
		SatisfactionEquilibreProPerso:    1,
		NoteEvaluationActuelle:           2,
		HeureSupplementaires:             "Oui",
		AugmentationSalairePrecedente:    0,
		NombreParticipationPEE:           0,
		NbFormationsSuivies:              0,
		NombreEmployeeSousResponsabilite: 1,
		DistanceDomicileTravail:          28,
		NiveauEducation:                  3,
		DomaineEtude:                     "Infra & Cloud",
		AyantEnfants:                     "Y",
		FrequenceDeplacement:             "Frequent",
		AnneesDepuisLaDernierePromotion:  0,
		AnnesSousResponsableActuel:       0,
	}
}

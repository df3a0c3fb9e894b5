package schema

// profileBlock is the signature-block variable set shared by the core
// document types. Values come from the firm's attorney profile, never from
// the user.
var profileBlock = []string{
	"firm_name", "attorney_name", "attorney_bar", "attorney_email",
	"firm_address", "firm_city_state_zip", "firm_phone", "firm_fax",
}

// Defaults returns the built-in schemas for the consolidated template set.
func Defaults() *Registry {
	return NewRegistry(
		DocumentType{
			Key:              "bond_assignment",
			Required:         []string{"defendant_name", "case_number", "county", "bond_amount"},
			Optional:         []OptionalVariable{{Name: "division"}},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:              "motion_to_dismiss",
			Required:         []string{"defendant_name", "case_number", "county"},
			Optional: []OptionalVariable{
				{Name: "division"},
				{Name: "dismissal_type", Default: "without prejudice"},
			},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:      "motion_for_continuance",
			Required: []string{"defendant_name", "case_number", "county", "hearing_date", "continuance_reason"},
			Optional: []OptionalVariable{
				{Name: "division"},
				{Name: "available_dates", SkipIfAbsent: true},
			},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:      "entry_of_appearance",
			Required: []string{"defendant_name", "case_number", "county"},
			Optional: []OptionalVariable{
				{Name: "division"},
				{Name: "second_attorney_name", SkipIfAbsent: true},
				{Name: "second_attorney_bar", SkipIfAbsent: true},
			},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:              "request_for_discovery",
			Required:         []string{"defendant_name", "case_number", "county"},
			Optional:         []OptionalVariable{{Name: "division"}},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:      "notice_of_hearing",
			Required: []string{"defendant_name", "case_number", "county", "hearing_date", "hearing_time"},
			Optional: []OptionalVariable{
				{Name: "division"},
				{Name: "courtroom", SkipIfAbsent: true},
			},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
			ForceUppercase:   map[string]string{"county": ContextCaption},
			LabelAnchors:     map[string]string{"case_number": "Case No.:"},
		},
		DocumentType{
			Key:              "disposition_letter",
			Required:         []string{"defendant_name", "case_number", "recipient_name"},
			Optional:         []OptionalVariable{{Name: "disposition_details"}},
			ProfileFilled:    profileBlock,
			PartyTerminology: PartiesDefendantState,
		},
	)
}

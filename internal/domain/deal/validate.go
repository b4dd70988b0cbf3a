package deal

// Validation messages are keyed by the field that failed so the wizard can
// attach them to the right input. Forward navigation is blocked while the
// map for the current step is non-empty.

const msgRequired = "This field is required"

// ValidateStep runs the validator for the given step against the draft and
// returns a field -> message map. An empty map means the step may be left.
func ValidateStep(d *DealDraft, step Step) map[string]string {
	switch step {
	case StepCompany:
		return validateCompanyStep(d)
	case StepService:
		return validateServiceStep(d)
	case StepCustomer:
		return validateCustomerStep(d)
	}
	return map[string]string{}
}

func validateCompanyStep(d *DealDraft) map[string]string {
	errs := map[string]string{}
	requireField(errs, FieldCompanyName, d.CompanyName)
	requireField(errs, FieldCompanyRegion, d.CompanyRegion)
	requireField(errs, FieldCompanyDistrict, d.CompanyDistrict)
	return errs
}

func validateServiceStep(d *DealDraft) map[string]string {
	errs := map[string]string{}
	requireField(errs, FieldServiceRegion, d.ServiceRegion)
	switch d.ServiceMode {
	case ServiceModeIndividual:
		requireField(errs, FieldServiceCategory, d.ServiceCategory)
		if len(d.ServiceIDs) == 0 {
			errs["serviceIds"] = "Select at least one service"
		}
	case ServiceModePackage:
		requireField(errs, FieldPackageID, d.PackageID)
	}
	return errs
}

func validateCustomerStep(d *DealDraft) map[string]string {
	errs := map[string]string{}
	requireField(errs, FieldCustomerName, d.CustomerName)
	requireField(errs, FieldCustomerContact, d.CustomerContact)
	requireField(errs, FieldCustomerEmail, d.CustomerEmail)
	requireField(errs, FieldCustomerRegion, d.CustomerRegion)
	requireField(errs, FieldCustomerDistrict, d.CustomerDistrict)
	requireField(errs, FieldClosureDate, d.ClosureDate)
	return errs
}

func requireField(errs map[string]string, key FieldKey, value string) {
	if value == "" {
		errs[string(key)] = msgRequired
	}
}

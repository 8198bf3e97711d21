package sanitizer

import "slotkeeper/pkg/model"

// NormalizeReserve leaves the owner token untouched: it is an opaque secret
// compared byte for byte.
func NormalizeReserve(req *model.ReserveRequest) {
	req.DoctorID = SanitizeID(req.DoctorID)
	req.Date = trim(req.Date)
	req.StartTime = SanitizeClock(req.StartTime)
}

func NormalizeDetails(details *model.AppointmentDetails) {
	details.PatientID = SanitizeID(details.PatientID)
	details.Reason = SanitizeText(details.Reason)
	details.Metadata = SanitizeMetadata(details.Metadata)
}

func NormalizeListQuery(doctorID, date string) (string, string) {
	return SanitizeID(doctorID), trim(date)
}

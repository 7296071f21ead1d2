package model

const BusinessProfilesTable = "BusinessProfiles"

// BusinessProfileItem is the tenant's WhatsApp Business account record. The
// gateway only ever needs the phone number id; the rest rides along for the
// provisioning tooling.
type BusinessProfileItem struct {
	BusinessProfileID         string `dynamodbav:"businessProfileId"`
	Name                      string `dynamodbav:"name"`
	PhoneNumberID             string `dynamodbav:"phoneNumberId"`
	DisplayPhoneNumber        string `dynamodbav:"displayPhoneNumber,omitempty"`
	WhatsAppBusinessAccountID string `dynamodbav:"whatsappBusinessAccountId,omitempty"`
	CreatedAt                 string `dynamodbav:"createdAt"`
}

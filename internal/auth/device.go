// ABOUTME: Terminal presentation of the device code sign-in
// ABOUTME: Shows the user code and verification URL while MSAL waits for completion
package auth

import (
	"github.com/pterm/pterm"
)

// ShowDeviceCode prints the device code instructions
func ShowDeviceCode(info DeviceCodeInfo) {
	pterm.Info.Println("Sign in on another device to continue")
	pterm.Println()

	codeBox := pterm.DefaultBox.WithTitle("Code").WithTitleTopCenter()
	codeBox.Println(pterm.LightCyan(info.UserCode))
	pterm.Println()

	pterm.DefaultBulletList.WithItems([]pterm.BulletListItem{
		{Level: 0, Text: pterm.Sprintf("Visit: %s", pterm.LightBlue(info.VerificationURL))},
		{Level: 0, Text: pterm.Sprintf("Enter the code: %s", pterm.LightCyan(info.UserCode))},
		{Level: 0, Text: "Sign in with your Partner Center account"},
	}).Render()
	pterm.Println()

	if info.ExpiresIn > 0 {
		pterm.Warning.Printfln("Code expires in %d minutes", info.ExpiresIn/60)
	}
	pterm.Info.Println("Waiting for sign-in to complete...")
}

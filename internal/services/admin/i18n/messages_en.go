package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Layout
	message.SetString(lang, "layout.title", "%s | Feature admin")
	message.SetString(lang, "nav.features", "Features")
	message.SetString(lang, "nav.cohorts", "Cohorts")
	message.SetString(lang, "nav.lang_en", "English")
	message.SetString(lang, "nav.lang_pt_br", "Português (Brasil)")

	// Features
	message.SetString(lang, "features.title", "Features")
	message.SetString(lang, "features.column.name", "Feature")
	message.SetString(lang, "features.column.everyone", "Everyone")
	message.SetString(lang, "features.column.staff", "Staff")
	message.SetString(lang, "features.column.admins", "Admins")
	message.SetString(lang, "features.column.cohorts", "Cohorts")
	message.SetString(lang, "features.save", "Save changes")
	message.SetString(lang, "features.empty", "No features are defined.")

	// Cohorts
	message.SetString(lang, "cohorts.title", "Cohorts")
	message.SetString(lang, "cohorts.add_label", "New cohort")
	message.SetString(lang, "cohorts.add_button", "Add cohort")
	message.SetString(lang, "cohorts.empty", "No cohorts yet.")
	message.SetString(lang, "cohort.title", "Cohort %s")
	message.SetString(lang, "cohort.members", "Members")
	message.SetString(lang, "cohort.no_members", "This cohort has no members.")
	message.SetString(lang, "cohort.username", "Username")
	message.SetString(lang, "cohort.add_member", "Add member")
	message.SetString(lang, "cohort.remove_member", "Remove")
	message.SetString(lang, "cohort.back", "All cohorts")

	// Flash messages
	message.SetString(lang, "flash.changes_saved", "Changes saved.")
	message.SetString(lang, "flash.cohort_created", "Cohort %s created.")
	message.SetString(lang, "flash.member_added", "Added %s.")
	message.SetString(lang, "flash.member_removed", "Removed %s.")

	// Errors
	message.SetString(lang, "error.feature_unknown", "Unknown feature.")
	message.SetString(lang, "error.cohort_not_found", "Cohort not found.")
	message.SetString(lang, "error.cohort_name_empty", "Cohort name is required.")
	message.SetString(lang, "error.cohort_name_taken", "A cohort with that name already exists.")
	message.SetString(lang, "error.user_not_found", "User not found")
	message.SetString(lang, "error.username_empty", "Username is required.")
	message.SetString(lang, "error.csrf_invalid", "Invalid or missing CSRF token.")
	message.SetString(lang, "error.method_not_allowed", "Method not allowed.")
	message.SetString(lang, "error.internal", "Something went wrong. Try again.")
}

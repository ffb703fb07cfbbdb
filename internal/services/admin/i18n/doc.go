// Package i18n resolves the operator's language and registers the admin
// message catalog with golang.org/x/text.
package i18n

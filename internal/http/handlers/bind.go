package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds the request body and, on failure, responds 400 with the
// Hebrew message for the first offending field.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		RespondBadRequest(ctx, fieldMessage(validationErrors[0]))
		return false
	}

	// bad json syntax, type mismatch, empty body
	RespondBadRequest(ctx, "גוף הבקשה אינו תקין")
	return false
}

// fieldMessage maps a failed binding rule to the message the original forms
// show. Field names are struct field names, not json keys.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		switch fe.Tag() {
		case "required":
			return "שם הוא שדה חובה"
		case "min":
			return "השם חייב להכיל לפחות 2 תווים"
		case "max":
			return "השם לא יכול להכיל יותר מ-50 תווים"
		}
	case "Email":
		switch fe.Tag() {
		case "required":
			return "אימייל הוא שדה חובה"
		case "email":
			return "כתובת אימייל לא תקינה"
		}
	case "Password":
		return "סיסמה היא שדה חובה"
	case "IsAdmin":
		return "שדה הרשאות המנהל הוא שדה חובה"
	case "Title":
		switch fe.Tag() {
		case "required":
			return "כותרת הספר היא שדה חובה"
		case "min":
			return "כותרת הספר חייבת להכיל לפחות תו אחד"
		case "max":
			return "כותרת הספר לא יכולה להכיל יותר מ-200 תווים"
		}
	case "Author":
		switch fe.Tag() {
		case "required":
			return "שם המחבר הוא שדה חובה"
		case "min":
			return "שם המחבר חייב להכיל לפחות 2 תווים"
		case "max":
			return "שם המחבר לא יכול להכיל יותר מ-100 תווים"
		}
	case "Description":
		switch fe.Tag() {
		case "required":
			return "תיאור הספר הוא שדה חובה"
		case "min":
			return "תיאור הספר חייב להכיל לפחות 10 תווים"
		case "max":
			return "תיאור הספר לא יכול להכיל יותר מ-2000 תווים"
		}
	case "Price":
		switch fe.Tag() {
		case "required":
			return "מחיר הספר הוא שדה חובה"
		case "min":
			return "המחיר לא יכול להיות שלילי"
		case "max":
			return "המחיר גבוה מדי"
		}
	case "Category":
		switch fe.Tag() {
		case "required":
			return "קטגוריה היא שדה חובה"
		case "oneof":
			return "קטגוריה לא תקינה"
		}
	case "Image":
		return "כתובת התמונה לא תקינה"
	case "Stock":
		switch fe.Tag() {
		case "required":
			return "כמות במלאי היא שדה חובה"
		case "min":
			return "כמות במלאי לא יכולה להיות שלילית"
		}
	case "Language":
		return "שם השפה ארוך מדי"
	case "Pages":
		return "מספר העמודים חייב להיות לפחות 1"
	}

	return "בקשה לא תקינה"
}

package telegram

import (
	"fmt"
	"strings"

	"scholarship-telegram-bot/internal/domain"
	"scholarship-telegram-bot/internal/usecase"
)

const (
	helpText = "🆘 HELP & INSTRUCTIONS\n\n" +
		"📋 How to Apply:\n" +
		"1. Use /apply to start application\n" +
		"2. Follow the step-by-step instructions\n" +
		"3. Provide your information when asked\n" +
		"4. Choose your service package\n" +
		"5. Submit your application\n\n" +
		"📊 Check Status:\n" +
		"Use /status to see your application progress\n\n" +
		"📄 Documents Needed:\n" +
		"• Passport scan\n• Educational certificates\n• Academic transcripts\n• Passport photo\n• Medical certificate\n\n" +
		"💼 Service Packages:\n" +
		"• Basic - Form filling assistance ($50)\n" +
		"• Premium - Full application help ($100)\n" +
		"• VIP - Complete process handling ($200)\n\n" +
		"❌ Cancel: Use /cancel to stop current application"

	unknownText = "🤔 I don't understand that command.\n\n" +
		"Try one of these:\n" +
		"/start - Welcome message\n" +
		"/apply - Start application\n" +
		"/status - Check status\n" +
		"/help - Get help\n" +
		"/cancel - Cancel operation"

	applyIntroText = "🤖 Welcome to Russia Scholarship Service!\n\n" +
		"I will help you apply for the Russian Government Scholarship.\n\n" +
		"Let's start with your personal information. This will take about 10-15 minutes."

	cancelHintText      = "Type /cancel at any time to stop the application."
	cancelledText       = "❌ Application cancelled.\n\nYou can start again with /apply anytime!"
	nothingToCancelText = "There is no application in progress. Use /apply to start one."
	invalidAnswerText   = "⚠️ Please answer with a text message."
	saveFailedText      = "❌ Error saving application! Please contact support and start again with /apply."
	noApplicationText   = "❌ No application found!\n\n" +
		"You haven't submitted an application yet.\n" +
		"Use /apply to start your scholarship application."
	statusUnavailableText = "⚠️ We could not load your application right now. Please try again later."
	accessDeniedText      = "Access denied"
	adminMenuText         = "Admin menu"
	funnelUnavailableText = "Funnel is not available"
)

func welcomeText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("🤖 Welcome %s to Russia Scholarship Service!\n\n"+
		"I will help you apply for the Russian Government Scholarship.\n\n"+
		"📋 Available Commands:\n"+
		"/apply - Start new application\n"+
		"/status - Check your application status\n"+
		"/help - Get help and instructions\n"+
		"/cancel - Cancel current operation\n\n"+
		"Click /apply to begin your scholarship journey! 🎓", name)
}

func promptText(step usecase.Step) string {
	if step.Intro == "" {
		return step.Prompt
	}
	return step.Intro + "\n\n" + step.Prompt
}

func firstPromptText(step usecase.Step) string {
	return applyIntroText + "\n\n" + promptText(step) + "\n\n" + cancelHintText
}

func submittedText(app domain.Application) string {
	return fmt.Sprintf("🎉 APPLICATION SUBMITTED SUCCESSFULLY! 🎉\n\n"+
		"📋 Application ID: %s\n"+
		"👤 Name: %s\n"+
		"📧 Email: %s\n"+
		"📞 Phone: %s\n"+
		"🎓 Education: %s\n"+
		"📚 Desired Study: %s in %s\n"+
		"💼 Service: %s\n"+
		"💰 Price: %s\n\n"+
		"📄 Next Steps - Document Collection:\n"+
		"Please prepare these documents:\n"+
		"1. 📔 Passport scan (main page with photo)\n"+
		"2. 🎓 Educational diplomas/certificates\n"+
		"3. 📊 Academic transcripts\n"+
		"4. 📸 Passport-sized photo\n"+
		"5. 🏥 Medical certificate (if available)\n\n"+
		"We will contact you within 24 hours to collect your documents "+
		"and complete the official application process.\n\n"+
		"Use /status to check your application progress.\n"+
		"Thank you for choosing our service! 🙏",
		app.ID, app.Name, app.Email, app.Phone, app.EducationLevel,
		app.DesiredLevel, app.PreferredField, app.ServicePackage, app.Price)
}

func statusText(app domain.Application) string {
	status := "⏳ Processing"
	if app.Status == domain.StatusSubmitted {
		status = "✅ Application Received"
	}
	return fmt.Sprintf("📋 YOUR APPLICATION STATUS\n\n"+
		"🆔 Application ID: %s\n"+
		"👤 Name: %s\n"+
		"📧 Email: %s\n"+
		"📞 Phone: %s\n"+
		"🌍 Country: %s\n"+
		"🎓 Education: %s\n"+
		"📚 Desired: %s in %s\n"+
		"💼 Service: %s\n"+
		"💰 Price: %s\n"+
		"📅 Submitted: %s\n\n"+
		"Status: %s\n\n"+
		"We'll contact you soon to collect your documents!",
		orNA(app.ID), orNA(app.Name), orNA(app.Email), orNA(app.Phone), orNA(app.Country),
		orNA(app.EducationLevel), orNA(app.DesiredLevel), orNA(app.PreferredField),
		orNA(app.ServicePackage), orNA(app.Price), app.SubmittedAt.Format("2006-01-02"), status)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

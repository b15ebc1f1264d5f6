package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	KeyJoined             = "participation.joined"
	KeyLeft               = "participation.left"
	KeyLoginToParticipate = "participation.login_required"
	KeyEventFull          = "event.full"
	KeyEventNotFound      = "event.not_found"
	KeyEventCreated       = "event.created"
	KeyEventInvalid       = "event.invalid"
	KeyLoginRequired      = "auth.login_required"
	KeyLoginSuccess       = "auth.login_success"
	KeyLoggedOut          = "auth.logged_out"
	KeySignupSuccess      = "auth.signup_success"
	KeyInvalidCredentials = "auth.invalid_credentials"
	KeyEmailTaken         = "auth.email_taken"
	KeyInvalidEmail       = "auth.invalid_email"
	KeyPasswordTooShort   = "auth.password_too_short"
	KeyInvalidRequest     = "error.invalid_request"
	KeyCSRFInvalid        = "error.csrf_invalid"
	KeyStoreUnavailable   = "error.store_unavailable"
	KeyInternal           = "error.internal"
)

func init() {
	fr := language.French
	message.SetString(fr, KeyJoined, "Vous participez maintenant à cet événement !")
	message.SetString(fr, KeyLeft, "Vous ne participez plus à cet événement")
	message.SetString(fr, KeyLoginToParticipate, "Veuillez vous connecter pour participer")
	message.SetString(fr, KeyEventFull, "Événement complet")
	message.SetString(fr, KeyEventNotFound, "Événement non trouvé")
	message.SetString(fr, KeyEventCreated, "Événement créé avec succès !")
	message.SetString(fr, KeyEventInvalid, "Erreur lors de la création de l'événement : %s")
	message.SetString(fr, KeyLoginRequired, "Veuillez vous connecter")
	message.SetString(fr, KeyLoginSuccess, "Connexion réussie !")
	message.SetString(fr, KeyLoggedOut, "Vous êtes déconnecté")
	message.SetString(fr, KeySignupSuccess, "Inscription réussie ! Vous pouvez maintenant vous connecter.")
	message.SetString(fr, KeyInvalidCredentials, "Email ou mot de passe incorrect")
	message.SetString(fr, KeyEmailTaken, "Un compte existe déjà avec cet email")
	message.SetString(fr, KeyInvalidEmail, "Adresse email invalide")
	message.SetString(fr, KeyPasswordTooShort, "Le mot de passe doit contenir au moins %d caractères")
	message.SetString(fr, KeyInvalidRequest, "Requête invalide : %s")
	message.SetString(fr, KeyCSRFInvalid, "Formulaire expiré, veuillez recharger la page")
	message.SetString(fr, KeyStoreUnavailable, "Service momentanément indisponible, veuillez réessayer")
	message.SetString(fr, KeyInternal, "Une erreur est survenue")

	en := language.English
	message.SetString(en, KeyJoined, "You are now participating in this event!")
	message.SetString(en, KeyLeft, "You are no longer participating in this event")
	message.SetString(en, KeyLoginToParticipate, "Please log in to participate")
	message.SetString(en, KeyEventFull, "This event is full")
	message.SetString(en, KeyEventNotFound, "Event not found")
	message.SetString(en, KeyEventCreated, "Event created successfully!")
	message.SetString(en, KeyEventInvalid, "Could not create the event: %s")
	message.SetString(en, KeyLoginRequired, "Please log in")
	message.SetString(en, KeyLoginSuccess, "Logged in!")
	message.SetString(en, KeyLoggedOut, "You are logged out")
	message.SetString(en, KeySignupSuccess, "Signed up! You can now log in.")
	message.SetString(en, KeyInvalidCredentials, "Incorrect email or password")
	message.SetString(en, KeyEmailTaken, "An account already exists with this email")
	message.SetString(en, KeyInvalidEmail, "Invalid email address")
	message.SetString(en, KeyPasswordTooShort, "Password must be at least %d characters")
	message.SetString(en, KeyInvalidRequest, "Invalid request: %s")
	message.SetString(en, KeyCSRFInvalid, "This form has expired, please reload the page")
	message.SetString(en, KeyStoreUnavailable, "Service temporarily unavailable, please try again")
	message.SetString(en, KeyInternal, "Something went wrong")
}

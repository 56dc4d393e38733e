package router

// Fixed reply texts. Collaborator failures degrade to one of these; raw
// errors are never relayed to the user.
const (
	msgWelcome = "Hi! I'm Snippy, the SnippyMart assistant. " +
		"Send MENU to browse our products, or HUMAN to talk to a person. " +
		"Send STOP at any time to end the conversation."
	msgDeactivated = "Okay, conversation ended. Send SNIPPY whenever you want to start again."
	msgConnecting  = "Got it, connecting you with a person. Someone from our team will reply here shortly."
	msgClosed      = "Thanks for your message! We're currently outside business hours; " +
		"we'll get back to you as soon as we're open again."
	msgMenuHeader         = "Here's what we have today. Pick an option or reply with its number:"
	msgCatalogUnavailable = "Sorry, our product list isn't available right now. Please try again in a few minutes."
	msgAskOrExit          = "Anything else you'd like to know? Ask away, send MENU to browse again, or STOP to finish."
	msgOrderLinkPrefix    = "Ready to order? Use this link: "
	msgOrderInfo          = "To place an order: pick a product from the MENU, then transfer the amount shown " +
		"and send us the payment receipt here. A team member will confirm your order."
	msgGenFallback = "Sorry, I'm having trouble answering that right now. Try MENU to browse products or HUMAN to reach our team."
)

// Interactive option tokens. These arrive back as SelectedOptionID and are
// honored regardless of the sender's current mode.
const (
	optionMenu  = "menu"
	optionHuman = "human"
)

var (
	activationKeywords   = []string{"snippy", "bot", "start"}
	deactivationKeywords = []string{"stop", "exit", "quit"}
	escalationKeywords   = []string{"human", "support", "help"}
	menuKeywords         = []string{"menu", "hi", "hello", "start"}
)

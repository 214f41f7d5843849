package service

import (
	"fmt"
	"strings"
)

var greetings = []string{
	"Hey! I'm here to listen and support you. What's on your mind today? 💙",
	"Hi there! I'm your AI therapist, and I'm here to help you work through whatever you're dealing with. How are you feeling?",
	"Hey! No judgment here - just a safe space to talk. What's going on in your world right now?",
	"Hi! I'm here to support you through whatever you're facing. What would you like to talk about?",
	"Hey there! I'm your AI companion for mental health support. What's been weighing on you lately?",
}

// personalizedGreetings take the display name as their only argument.
var personalizedGreetings = []string{
	"Hey %s! I'm here to listen and support you. What's on your mind today? 💙",
	"Hi %s! I'm your AI therapist, and I'm here to help you work through whatever you're dealing with. How are you feeling?",
	"Hey %s! No judgment here - just a safe space to talk. What's going on in your world right now?",
	"Hi %s! I'm here to support you through whatever you're facing. What would you like to talk about?",
	"Hey there %s! I'm your AI companion for mental health support. What's been weighing on you lately?",
}

// Greeting picks an opening line, personalized when name is not empty.
func (s *Service) Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return greetings[s.intn(len(greetings))]
	}
	return fmt.Sprintf(personalizedGreetings[s.intn(len(personalizedGreetings))], name)
}

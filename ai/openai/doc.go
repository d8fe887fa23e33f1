// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package openai talks to OpenAI-compatible servers (Ollama, vLLM, LocalAI
// or OpenAI itself) through langchaingo.
//
// Embedding and generation may point at different hosts. A host without a
// /v1 suffix gets one during ai.Config validation:
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithGenerationModel("deepseek-r1:1.5b"),
//	))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	answer, err := provider.Generator().Generate(ctx, "What does chapter two cover?", "")
//
// Text from the provider's generator never contains <think> blocks.
package openai

package engine

// Prompt templates for each step. Kept as plain format strings; the only
// substitutions are question and retrieved context.

const graderPrompt = `You are a grader assessing relevance of a retrieved document to a user question.
Here is the retrieved document:

%s

Here is the user question: %s
If the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant.
Respond with a JSON object of the form {"binary_score": "yes"} or {"binary_score": "no"} indicating whether the document is relevant to the question.`

const agentFromHumanPrompt = `You are an AI assistant answering questions based on stored documents.

- If retrieved documents exist, always include relevant excerpts in your response.
- If the query is broad (e.g., "Tell me about the document"), summarize the key themes and topics.
- If the query is specific, provide a direct answer with supporting excerpts.
- If no matching content is found in the retrieved documents, inform the user instead of assuming nothing exists.
- If the user query is ambiguous, ask for clarification.
- If the user query is a greeting, respond with a greeting.
- If the user query is not relevant to the documents, respond accordingly and do not change topics.

User Query: %s

Your Response:`

const agentFromAIPrompt = `You are an AI assistant answering questions based on stored documents.

You are receiving a suggested reformulation of the query from an AI assistant.
Use the reformulated query, keeping it in context of the original query, to find relevant documents.

Reformulated query: %s

Your Response:`

const rewritePrompt = `Look at the input and try to reason about the underlying semantic intent / meaning.
Here is the initial question:

-------
%s
-------

Formulate an improved question. Respond with the improved question only.`

const generatePrompt = `You are an assistant for question-answering tasks.
- Return the answer in markdown format for citing key points.
- Do not start the answer with "Based on the context" or anything similar.
- Use the following pieces of retrieved context to answer the question.
- If you don't know the answer, just say that you don't know.
- Try to keep the answer concise; if more detail is required to answer the question, the response can be longer.
- Provide direct sources from the documents if appropriate.
- If the question is broad, provide a general summary of the document, and if the context seems fragmented, try to provide a coherent answer.
Question: %s
Context: %s
Answer:`
